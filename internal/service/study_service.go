package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vocabflow/internal/models"
	"vocabflow/internal/repository"
	"vocabflow/internal/session"
)

var (
	ErrNoStudySession = errors.New("no study session for this scope")
	ErrCannotSave     = errors.New("this word cannot be saved to the notebook")
)

// CredentialSyncer persists backend cookies that rotated during a request
type CredentialSyncer interface {
	SyncCredentials(ctx context.Context, ws *models.WebSession, creds models.Credentials) error
}

// StudyStateStore persists session snapshots. *repository.StudyStateRepository
// is the production implementation.
type StudyStateStore interface {
	SaveState(ctx context.Context, sessionID string, state *models.SessionState) error
	GetState(ctx context.Context, sessionID string, scope models.Scope) (*models.SessionState, error)
	ListScopes(ctx context.Context, sessionID string) ([]models.Scope, error)
	DeleteState(ctx context.Context, sessionID string, scope models.Scope) error
}

var _ StudyStateStore = (*repository.StudyStateRepository)(nil)

type liveKey struct {
	sessionID string
	scopeKey  string
}

type liveSession struct {
	ctrl     *session.Controller
	backend  Backend
	lastUsed time.Time

	// saveMu orders snapshot and save so an older state never lands last
	saveMu sync.Mutex
}

// StudyService holds one live session controller per browser session and
// scope. Every change is written to the study state store so a restarted
// server resumes where the user left off.
type StudyService struct {
	states   StudyStateStore
	backends BackendFactory
	creds    CredentialSyncer
	opts     session.Options
	logger   *slog.Logger

	mu   sync.Mutex
	live map[liveKey]*liveSession
	now  func() time.Time
}

// NewStudyService creates a new study service. creds may be nil.
func NewStudyService(states StudyStateStore, backends BackendFactory, creds CredentialSyncer, opts session.Options) *StudyService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
		opts.Logger = logger
	}
	return &StudyService{
		states:   states,
		backends: backends,
		creds:    creds,
		opts:     opts,
		logger:   logger,
		live:     make(map[liveKey]*liveSession),
		now:      time.Now,
	}
}

// Open returns the session for scope, creating or restoring it as needed.
// With restart set any existing session is discarded and a new one started.
func (s *StudyService) Open(ctx context.Context, ws *models.WebSession, scope models.Scope, restart bool) (*models.SessionState, error) {
	ls, err := s.attach(ctx, ws, scope)
	if err != nil {
		return nil, err
	}
	st := ls.ctrl.State()
	switch {
	case restart || st.Generation == 0:
		return s.run(ctx, ws, scope, ls, func(c *session.Controller) error { return c.Start(ctx) })
	case st.Screen == models.ScreenLoading && st.LastError == "":
		// the server stopped while a fetch was running
		return s.run(ctx, ws, scope, ls, func(c *session.Controller) error { return c.Retry(ctx) })
	}
	return st, nil
}

// State returns the current state for scope without touching the backend
func (s *StudyService) State(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	ls, err := s.existing(ctx, ws, scope)
	if err != nil {
		return nil, err
	}
	return ls.ctrl.State(), nil
}

// StartQuiz turns the current flashcard face into its question
func (s *StudyService) StartQuiz(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.StartQuiz() })
}

// Select records the user's answer without submitting it
func (s *StudyService) Select(ctx context.Context, ws *models.WebSession, scope models.Scope, answer models.Answer) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.Select(answer) })
}

// Submit posts the answer, or the current selection when answer is nil
func (s *StudyService) Submit(ctx context.Context, ws *models.WebSession, scope models.Scope, answer *models.Answer) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.Submit(ctx, answer) })
}

// Next moves past the result screen
func (s *StudyService) Next(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.Next(ctx) })
}

// Skip gives up on the current item
func (s *StudyService) Skip(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.Skip(ctx) })
}

// Retry fetches again after a failed fetch
func (s *StudyService) Retry(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	return s.do(ctx, ws, scope, func(c *session.Controller) error { return c.Retry(ctx) })
}

// Save adds the answered word to the notebook
func (s *StudyService) Save(ctx context.Context, ws *models.WebSession, scope models.Scope) (*models.SessionState, error) {
	ls, err := s.existing(ctx, ws, scope)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ws, scope, ls, func(c *session.Controller) error {
		st := c.State()
		if st.Scope.Kind != models.ScopeTopic || st.Saved || st.Answered == nil || st.Answered.VocabularyID == 0 {
			return ErrCannotSave
		}
		if st.Screen != models.ScreenCorrect && st.Screen != models.ScreenWrong {
			return session.ErrInvalidTransition
		}
		if _, err := ls.backend.AddToNotebook(ctx, st.Answered.VocabularyID, ""); err != nil {
			return fmt.Errorf("failed to add word to notebook: %w", err)
		}
		return c.MarkSaved()
	})
}

// Forget drops the session for scope, live and stored
func (s *StudyService) Forget(ctx context.Context, ws *models.WebSession, scope models.Scope) error {
	s.mu.Lock()
	delete(s.live, liveKey{ws.ID, scope.Key()})
	s.mu.Unlock()
	if err := s.states.DeleteState(ctx, ws.ID, scope); err != nil {
		return fmt.Errorf("failed to delete study state: %w", err)
	}
	return nil
}

// ActiveScopes lists the scopes with a stored session, most recent first
func (s *StudyService) ActiveScopes(ctx context.Context, ws *models.WebSession) ([]models.Scope, error) {
	scopes, err := s.states.ListScopes(ctx, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	return scopes, nil
}

// Evict drops every live controller of a browser session. Stored state is
// left to the database cascade.
func (s *StudyService) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.live {
		if k.sessionID == sessionID {
			delete(s.live, k)
		}
	}
}

// EvictIdle drops live controllers unused for longer than idle. Their state
// stays in the store and is restored on the next request.
func (s *StudyService) EvictIdle(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for k, ls := range s.live {
		if ls.lastUsed.Before(cutoff) {
			delete(s.live, k)
			n++
		}
	}
	return n
}

func (s *StudyService) do(ctx context.Context, ws *models.WebSession, scope models.Scope, op func(*session.Controller) error) (*models.SessionState, error) {
	ls, err := s.existing(ctx, ws, scope)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ws, scope, ls, op)
}

// run applies op and stores the resulting state whether or not op failed,
// since a failed fetch or submit still changes what the user sees.
func (s *StudyService) run(ctx context.Context, ws *models.WebSession, scope models.Scope, ls *liveSession, op func(*session.Controller) error) (*models.SessionState, error) {
	opErr := op(ls.ctrl)

	ls.saveMu.Lock()
	st := ls.ctrl.State()
	if !s.current(ws.ID, scope, ls) {
		ls.saveMu.Unlock()
		return st, opErr
	}
	err := s.states.SaveState(ctx, ws.ID, st)
	ls.saveMu.Unlock()
	if err != nil {
		s.logger.Error("failed to save study state", "scope", scope.Key(), "error", err)
		if opErr == nil {
			opErr = fmt.Errorf("failed to save study state: %w", err)
		}
	}
	if s.creds != nil {
		if err := s.creds.SyncCredentials(ctx, ws, ls.backend.Credentials()); err != nil {
			s.logger.Warn("failed to store rotated backend credentials", "error", err)
		}
	}
	return st, opErr
}

// existing finds the live controller for scope or restores it from the
// store. It fails with ErrNoStudySession when neither exists.
func (s *StudyService) existing(ctx context.Context, ws *models.WebSession, scope models.Scope) (*liveSession, error) {
	ls, err := s.lookup(ctx, ws, scope)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		return nil, ErrNoStudySession
	}
	return ls, nil
}

// attach returns the controller for scope, creating an unstarted one when
// none exists
func (s *StudyService) attach(ctx context.Context, ws *models.WebSession, scope models.Scope) (*liveSession, error) {
	ls, err := s.lookup(ctx, ws, scope)
	if err != nil || ls != nil {
		return ls, err
	}
	backend, err := s.backends(ws.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return s.store(ws.ID, scope, &liveSession{ctrl: session.New(backend, scope, s.opts), backend: backend}), nil
}

func (s *StudyService) lookup(ctx context.Context, ws *models.WebSession, scope models.Scope) (*liveSession, error) {
	key := liveKey{ws.ID, scope.Key()}
	s.mu.Lock()
	ls, ok := s.live[key]
	if ok {
		ls.lastUsed = s.now()
	}
	s.mu.Unlock()
	if ok {
		return ls, nil
	}

	saved, err := s.states.GetState(ctx, ws.ID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load study state: %w", err)
	}
	if saved == nil {
		return nil, nil
	}
	backend, err := s.backends(ws.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	s.logger.Debug("restoring study session", "scope", scope.Key(), "screen", saved.Screen)
	return s.store(ws.ID, scope, &liveSession{ctrl: session.Restore(backend, saved, s.opts), backend: backend}), nil
}

func (s *StudyService) store(sessionID string, scope models.Scope, ls *liveSession) *liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := liveKey{sessionID, scope.Key()}
	if existing, ok := s.live[key]; ok {
		existing.lastUsed = s.now()
		return existing
	}
	ls.lastUsed = s.now()
	s.live[key] = ls
	return ls
}

// current reports whether ls is still the live controller for its key. A
// request that finishes after Forget or Evict must not write state back.
func (s *StudyService) current(sessionID string, scope models.Scope, ls *liveSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[liveKey{sessionID, scope.Key()}] == ls
}
