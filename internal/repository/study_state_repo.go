package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vocabflow/internal/database"
	"vocabflow/internal/models"
)

// StudyStateRepository stores session controller snapshots per web session
// and scope
type StudyStateRepository struct {
	db database.DBTX
}

// NewStudyStateRepository creates a new study state repository
func NewStudyStateRepository(db database.DBTX) *StudyStateRepository {
	return &StudyStateRepository{db: db}
}

// SaveState writes the snapshot, replacing any previous one for the same scope
func (r *StudyStateRepository) SaveState(ctx context.Context, sessionID string, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode study state: %w", err)
	}
	query := r.db.GetDialect().UpsertStudyState()
	if _, err := r.db.ExecContext(ctx, query, sessionID, state.Scope.Key(), string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save study state: %w", err)
	}
	return nil
}

// GetState loads the snapshot for scope. It returns nil when there is none.
func (r *StudyStateRepository) GetState(ctx context.Context, sessionID string, scope models.Scope) (*models.SessionState, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		"SELECT state FROM study_states WHERE web_session_id = ? AND scope_key = ?",
		sessionID, scope.Key(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study state: %w", err)
	}

	state := &models.SessionState{}
	if err := json.Unmarshal([]byte(data), state); err != nil {
		return nil, fmt.Errorf("failed to decode study state: %w", err)
	}
	if state.Scope != scope {
		return nil, fmt.Errorf("study state for %s holds scope %s", scope.Key(), state.Scope.Key())
	}
	return state, nil
}

// ListScopes returns the scopes that have a snapshot, most recent first
func (r *StudyStateRepository) ListScopes(ctx context.Context, sessionID string) ([]models.Scope, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT scope_key FROM study_states WHERE web_session_id = ? ORDER BY updated_at DESC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query study states: %w", err)
	}
	defer rows.Close()

	var scopes []models.Scope
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan study state: %w", err)
		}
		scope, err := models.ParseScopeKey(key)
		if err != nil {
			continue
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// DeleteState removes the snapshot for scope
func (r *StudyStateRepository) DeleteState(ctx context.Context, sessionID string, scope models.Scope) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM study_states WHERE web_session_id = ? AND scope_key = ?",
		sessionID, scope.Key(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete study state: %w", err)
	}
	return nil
}
