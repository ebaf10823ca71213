package security

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each gets an independent key derived from SESSION_SECRET.
const (
	PurposeSessionToken = "vocabflow session token"
	PurposeCSRF         = "vocabflow csrf"
	PurposeVault        = "vocabflow credential vault"
)

// DeriveKey expands the master secret into a key of n bytes for purpose
func DeriveKey(secret, purpose string, n int) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret is required")
	}
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", purpose, err)
	}
	return key, nil
}
