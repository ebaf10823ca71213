package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/repository"
	"vocabflow/internal/security"
	"vocabflow/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService logs users in against the backend and keeps their backend
// credentials sealed in the local session store
type AuthService struct {
	sessions        *repository.SessionRepository
	vault           *security.Vault
	tokens          *security.SessionTokens
	backends        BackendFactory
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(sessions *repository.SessionRepository, vault *security.Vault, tokens *security.SessionTokens, backends BackendFactory, sessionDuration time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		sessions:        sessions,
		vault:           vault,
		tokens:          tokens,
		backends:        backends,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// Login authenticates with the backend and creates a web session. It
// returns the session and the signed token for the browser cookie.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.WebSession, string, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	backend, err := s.backends(models.Credentials{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create backend client: %w", err)
	}
	creds, err := backend.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidLogin) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("backend login failed: %w", err)
	}

	sealed, err := s.vault.SealCredentials(creds)
	if err != nil {
		return nil, "", fmt.Errorf("failed to seal credentials: %w", err)
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	record, err := s.sessions.CreateSession(ctx, sessionID, username, sealed, expiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(record.ID, username, record.ExpiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Info("user logged in", "username", username)
	return &models.WebSession{
		ID:          record.ID,
		Username:    record.Username,
		Credentials: creds,
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   record.ExpiresAt,
	}, token, nil
}

// Authenticate resolves a browser session token to a live web session
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.WebSession, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	record, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if record == nil {
		return nil, ErrSessionNotFound
	}

	ws := &models.WebSession{
		ID:        record.ID,
		Username:  record.Username,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if ws.IsExpired() {
		_ = s.sessions.DeleteSession(ctx, record.ID)
		return nil, ErrSessionExpired
	}

	creds, err := s.vault.OpenCredentials(record.SealedCredentials)
	if err != nil {
		// A rotated SESSION_SECRET makes every stored session unreadable.
		s.logger.Warn("dropping session with unreadable credentials", "session", record.ID, "error", err)
		_ = s.sessions.DeleteSession(ctx, record.ID)
		return nil, ErrSessionNotFound
	}
	ws.Credentials = creds
	return ws, nil
}

// Backend returns a backend client acting as the session's user
func (s *AuthService) Backend(ws *models.WebSession) (Backend, error) {
	b, err := s.backends(ws.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return b, nil
}

// SyncCredentials stores the backend's cookies again if they rotated
// since the session was loaded
func (s *AuthService) SyncCredentials(ctx context.Context, ws *models.WebSession, creds models.Credentials) error {
	if creds.IsZero() || creds == ws.Credentials {
		return nil
	}
	sealed, err := s.vault.SealCredentials(creds)
	if err != nil {
		return fmt.Errorf("failed to seal credentials: %w", err)
	}
	if err := s.sessions.UpdateCredentials(ctx, ws.ID, sealed); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	ws.Credentials = creds
	return nil
}

// Logout ends the backend session and deletes the web session. A backend
// failure is logged and does not keep the local session alive.
func (s *AuthService) Logout(ctx context.Context, ws *models.WebSession) error {
	if backend, err := s.Backend(ws); err == nil {
		if err := backend.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", "username", ws.Username, "error", err)
		}
	}
	if err := s.sessions.DeleteSession(ctx, ws.ID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}
