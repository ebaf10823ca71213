package security

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"vocabflow/internal/models"
)

const nonceSize = 24

// ErrSealedDataInvalid means sealed data was tampered with or sealed under another key
var ErrSealedDataInvalid = errors.New("sealed data cannot be opened")

// Vault seals backend credentials before they are written to the database
type Vault struct {
	key [32]byte
}

// NewVault creates a vault keyed from the master secret
func NewVault(secret string) (*Vault, error) {
	key, err := DeriveKey(secret, PurposeVault, 32)
	if err != nil {
		return nil, err
	}
	v := &Vault{}
	copy(v.key[:], key)
	return v, nil
}

// Seal encrypts and authenticates plaintext. The nonce is prepended.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &v.key), nil
}

// Open reverses Seal
func (v *Vault) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrSealedDataInvalid
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &v.key)
	if !ok {
		return nil, ErrSealedDataInvalid
	}
	return plaintext, nil
}

// SealCredentials seals backend cookies for storage
func (v *Vault) SealCredentials(creds models.Credentials) ([]byte, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	return v.Seal(data)
}

// OpenCredentials reverses SealCredentials
func (v *Vault) OpenCredentials(sealed []byte) (models.Credentials, error) {
	data, err := v.Open(sealed)
	if err != nil {
		return models.Credentials{}, err
	}
	var creds models.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return models.Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return creds, nil
}
