package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"vocabflow/internal/database"
)

// BackupVersion is written into every export
const BackupVersion = "1"

// BackupData is the portable dump of the front end's own tables. Sealed
// credentials are copied as-is, so the target must use the same
// SESSION_SECRET to read them.
type BackupData struct {
	Version     string             `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Dialect     string             `json:"dialect"`
	Sessions    []WebSessionBackup `json:"web_sessions"`
	StudyStates []StudyStateBackup `json:"study_states"`
}

// WebSessionBackup is one web_sessions row
type WebSessionBackup struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Credentials []byte    `json:"credentials"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StudyStateBackup is one study_states row. State is kept as raw JSON.
type StudyStateBackup struct {
	WebSessionID string          `json:"web_session_id"`
	ScopeKey     string          `json:"scope_key"`
	State        json.RawMessage `json:"state"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BackupService exports and imports web sessions and study states
type BackupService struct {
	db     *database.DB
	logger *slog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{db: db, logger: logger}
}

// Export writes every unexpired session and its study states to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Dialect:    s.db.Dialect.MigrationsSubdir(),
	}

	if err := s.exportSessions(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export web sessions: %w", err)
	}
	if err := s.exportStudyStates(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export study states: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Exported backup", "web_sessions", len(backup.Sessions), "study_states", len(backup.StudyStates))
	return backup, nil
}

// Import reads a backup from r and inserts it in one transaction. With
// clearData set, existing rows are deleted first. Sessions that expired since
// the export are skipped along with their study states.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clearData bool) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.logger.Info("Importing backup", "exported_at", backup.ExportedAt, "dialect", backup.Dialect)

	now := time.Now().UTC()
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clearData {
			// study_states first, it references web_sessions
			for _, table := range []string{"study_states", "web_sessions"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
		}

		live := make(map[string]bool, len(backup.Sessions))
		for _, ws := range backup.Sessions {
			if !ws.ExpiresAt.After(now) {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO web_sessions (id, username, credentials, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
				ws.ID, ws.Username, ws.Credentials, ws.CreatedAt, ws.ExpiresAt)
			if err != nil {
				return fmt.Errorf("failed to import web session %s: %w", ws.ID, err)
			}
			live[ws.ID] = true
		}

		imported := 0
		for _, st := range backup.StudyStates {
			if !live[st.WebSessionID] {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO study_states (web_session_id, scope_key, state, updated_at) VALUES (?, ?, ?, ?)",
				st.WebSessionID, st.ScopeKey, string(st.State), st.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import study state %s/%s: %w", st.WebSessionID, st.ScopeKey, err)
			}
			imported++
		}

		s.logger.Info("Imported backup", "web_sessions", len(live), "study_states", imported)
		return nil
	})
}

func (s *BackupService) exportSessions(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, credentials, created_at, expires_at FROM web_sessions WHERE expires_at > ? ORDER BY created_at",
		time.Now().UTC())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ws WebSessionBackup
		if err := rows.Scan(&ws.ID, &ws.Username, &ws.Credentials, &ws.CreatedAt, &ws.ExpiresAt); err != nil {
			return err
		}
		backup.Sessions = append(backup.Sessions, ws)
	}
	return rows.Err()
}

func (s *BackupService) exportStudyStates(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT st.web_session_id, st.scope_key, st.state, st.updated_at
		 FROM study_states st JOIN web_sessions ws ON ws.id = st.web_session_id
		 WHERE ws.expires_at > ? ORDER BY st.web_session_id, st.scope_key`,
		time.Now().UTC())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st    StudyStateBackup
			state string
		)
		if err := rows.Scan(&st.WebSessionID, &st.ScopeKey, &state, &st.UpdatedAt); err != nil {
			return err
		}
		st.State = json.RawMessage(state)
		backup.StudyStates = append(backup.StudyStates, st)
	}
	return rows.Err()
}
