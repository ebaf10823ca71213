package gateway

import (
	"context"
	"errors"
	"net/http"

	"vocabflow/internal/models"
)

// ErrInvalidLogin is returned when the backend rejects a username/password
var ErrInvalidLogin = errors.New("invalid username or password")

// Login authenticates against the backend. On success the client's jar
// holds the backend session and the returned credentials can be stored.
func (c *Client) Login(ctx context.Context, username, password string) (models.Credentials, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	err := c.do(ctx, "login", http.MethodPost, "api/login/", nil, body, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			return models.Credentials{}, ErrInvalidLogin
		}
		return models.Credentials{}, err
	}

	creds := c.Credentials()
	if creds.IsZero() {
		return models.Credentials{}, &DecodeError{Op: "login", Err: errors.New("backend did not set a session cookie")}
	}
	return creds, nil
}

// Logout ends the backend session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "api/logout/", nil, nil, nil)
}

// Profile returns the logged-in user's profile
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, "profile", http.MethodGet, "api/profile/", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
