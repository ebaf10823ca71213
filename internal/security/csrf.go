package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	// CSRFFormField is the hidden form field carrying the token
	CSRFFormField = "csrf_token"
	// CSRFHeader is accepted in place of the form field
	CSRFHeader = "X-CSRF-Token"
)

// CSRFGenerator derives per-session CSRF tokens with HMAC-SHA256. Tokens
// depend only on the session ID and the key, so replicas need no shared
// state.
type CSRFGenerator struct {
	key []byte
}

// NewCSRFGenerator creates a generator keyed from the master secret
func NewCSRFGenerator(secret string) (*CSRFGenerator, error) {
	key, err := DeriveKey(secret, PurposeCSRF, 32)
	if err != nil {
		return nil, err
	}
	return &CSRFGenerator{key: key}, nil
}

// GenerateToken returns the CSRF token for sessionID
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}
	return base64.RawURLEncoding.EncodeToString(g.sum(sessionID)), nil
}

// ValidateToken reports whether token is the valid CSRF token for sessionID
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(g.sum(sessionID), got)
}

func (g *CSRFGenerator) sum(sessionID string) []byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

// TokenFromRequest reads the submitted CSRF token from the header or the form
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(CSRFHeader); token != "" {
		return token
	}
	return r.PostFormValue(CSRFFormField)
}
