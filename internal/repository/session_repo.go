package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vocabflow/internal/database"
)

// SessionRecord is a stored web session. Credentials stay sealed here;
// only the auth service can open them.
type SessionRecord struct {
	ID                string
	Username          string
	SealedCredentials []byte
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// SessionRepository handles database operations for web sessions
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a new web session
func (r *SessionRepository) CreateSession(ctx context.Context, id, username string, sealed []byte, expiresAt time.Time) (*SessionRecord, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO web_sessions (id, username, credentials, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, id, username, sealed, now, expiresAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SessionRecord{
		ID:                id,
		Username:          username,
		SealedCredentials: sealed,
		CreatedAt:         now,
		ExpiresAt:         expiresAt.UTC(),
	}, nil
}

// GetSession retrieves a session by ID. It returns nil when there is none.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	query := `
		SELECT id, username, credentials, created_at, expires_at
		FROM web_sessions
		WHERE id = ?
	`
	rec := &SessionRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Username,
		&rec.SealedCredentials,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return rec, nil
}

// UpdateCredentials replaces the sealed backend credentials of a session
func (r *SessionRepository) UpdateCredentials(ctx context.Context, id string, sealed []byte) error {
	_, err := r.db.ExecContext(ctx, "UPDATE web_sessions SET credentials = ? WHERE id = ?", sealed, id)
	if err != nil {
		return fmt.Errorf("failed to update session credentials: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its study snapshots
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM study_states WHERE web_session_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM web_sessions WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns how many
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now().UTC()
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM study_states WHERE web_session_id IN (SELECT id FROM web_sessions WHERE expires_at < ?)", now)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM web_sessions WHERE expires_at < ?", now)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
