package models

import "time"

// Credentials are the backend cookies that authenticate a user against the
// vocabulary API. They never leave the server.
type Credentials struct {
	SessionCookie string `json:"session_cookie"`
	CSRFToken     string `json:"csrf_token"`
}

// IsZero reports whether no backend session is attached
func (c Credentials) IsZero() bool {
	return c.SessionCookie == ""
}

// WebSession represents an authenticated browser session
type WebSession struct {
	ID          string
	Username    string
	Credentials Credentials
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// IsExpired checks if the session has expired
func (s *WebSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Profile is the backend's view of the logged-in user
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
