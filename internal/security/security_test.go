package security

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabflow/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDeriveKeyPurposesDiffer(t *testing.T) {
	a, err := DeriveKey(testSecret, PurposeCSRF, 32)
	require.NoError(t, err)
	b, err := DeriveKey(testSecret, PurposeVault, 32)
	require.NoError(t, err)
	again, err := DeriveKey(testSecret, PurposeCSRF, 32)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)

	_, err = DeriveKey("", PurposeCSRF, 32)
	assert.Error(t, err)
}

func TestCSRFToken(t *testing.T) {
	g, err := NewCSRFGenerator(testSecret)
	require.NoError(t, err)

	token, err := g.GenerateToken("session-1")
	require.NoError(t, err)
	assert.True(t, g.ValidateToken("session-1", token))
	assert.False(t, g.ValidateToken("session-2", token))
	assert.False(t, g.ValidateToken("session-1", ""))
	assert.False(t, g.ValidateToken("session-1", "not base64!"))

	_, err = g.GenerateToken("")
	assert.Error(t, err)

	other, err := NewCSRFGenerator(strings.Repeat("x", 32))
	require.NoError(t, err)
	assert.False(t, other.ValidateToken("session-1", token))
}

func TestTokenFromRequest(t *testing.T) {
	form := url.Values{CSRFFormField: {"from-form"}}
	r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "from-form", TokenFromRequest(r))

	r = httptest.NewRequest("POST", "/", nil)
	r.Header.Set(CSRFHeader, "from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))
}

func TestSessionTokens(t *testing.T) {
	tokens, err := NewSessionTokens(testSecret)
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := tokens.Issue("sid-1", "alice", expires)
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.ExpiresAt.Equal(expires))

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
		_, err := tokens.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewSessionTokens(strings.Repeat("y", 32))
		require.NoError(t, err)
		_, err = other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := tokens.Issue("sid-1", "alice", time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = tokens.Parse(old)
		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})
}

func TestVault(t *testing.T) {
	v, err := NewVault(testSecret)
	require.NoError(t, err)
	creds := models.Credentials{SessionCookie: "abc", CSRFToken: "def"}

	sealed, err := v.SealCredentials(creds)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "abc")

	opened, err := v.OpenCredentials(sealed)
	require.NoError(t, err)
	assert.Equal(t, creds, opened)

	again, err := v.SealCredentials(creds)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "every seal uses a fresh nonce")

	other, err := NewVault(strings.Repeat("z", 32))
	require.NoError(t, err)
	_, err = other.OpenCredentials(sealed)
	assert.ErrorIs(t, err, ErrSealedDataInvalid)

	sealed[len(sealed)-1] ^= 0xff
	_, err = v.OpenCredentials(sealed)
	assert.ErrorIs(t, err, ErrSealedDataInvalid)

	_, err = v.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrSealedDataInvalid)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")

	assert.Equal(t, 0, rl.Cleanup())
	rl.idle = -time.Second
	assert.Equal(t, 2, rl.Cleanup())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}

func TestSessionCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	c := CreateSessionCookie(r, "token", time.Now().Add(time.Hour))
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	d := CreateDeleteCookie(httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, -1, d.MaxAge)
	assert.False(t, d.Secure)
}
