package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vocabflow/internal/database"
	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/repository"
	"vocabflow/internal/security"
)

var testSecret = strings.Repeat("k", 32)

// fakeBackend is an in-memory Backend. Items are served in order, skipping
// excluded IDs the way the real backend does.
type fakeBackend struct {
	mu sync.Mutex

	creds    models.Credentials
	password string
	loginErr error

	items    []*models.Item
	verdicts map[int64]bool
	fetchErr error
	// rotateCSRF replaces the CSRF cookie on the next fetch
	rotateCSRF string

	submissions []models.Submission
	saved       []int64
	entries     map[int64]*models.NotebookEntry
	profile     *models.Profile
	stats       *models.Stats
	statsErr    error
	deleteErr   error
	loggedOut   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		password: "secret",
		verdicts: map[int64]bool{},
		entries:  map[int64]*models.NotebookEntry{},
		profile:  &models.Profile{ID: 1, Username: "alice", Email: "alice@example.com"},
		stats:    &models.Stats{TotalWords: 3},
	}
}

// factory hands out the same fake for every credential set
func (f *fakeBackend) factory() BackendFactory {
	return func(creds models.Credentials) (Backend, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !creds.IsZero() {
			f.creds = creds
		}
		return f, nil
	}
}

func (f *fakeBackend) NextItem(ctx context.Context, scope models.Scope, excluded models.IDSet) (models.NextItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rotateCSRF != "" {
		f.creds.CSRFToken = f.rotateCSRF
		f.rotateCSRF = ""
	}
	if f.fetchErr != nil {
		return models.NextItem{}, f.fetchErr
	}
	for _, it := range f.items {
		if !excluded.Has(it.ID) {
			c := *it
			return models.NextItem{Item: &c}, nil
		}
	}
	return models.NextItem{Finished: true}, nil
}

func (f *fakeBackend) Submit(ctx context.Context, scope models.Scope, sub models.Submission) (*models.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	return &models.SubmissionResult{IsCorrect: f.verdicts[sub.Item.ID]}, nil
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (models.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return models.Credentials{}, f.loginErr
	}
	if password != f.password {
		return models.Credentials{}, gateway.ErrInvalidLogin
	}
	f.creds = models.Credentials{SessionCookie: "django-" + username, CSRFToken: "csrf-1"}
	return f.creds, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
	return nil
}

func (f *fakeBackend) Profile(ctx context.Context) (*models.Profile, error) {
	return f.profile, nil
}

func (f *fakeBackend) Credentials() models.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

func (f *fakeBackend) Stats(ctx context.Context) (*models.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeBackend) Topics(ctx context.Context) ([]models.Topic, error) {
	return []models.Topic{{ID: 1, Title: "Fruit", Progress: 40}}, nil
}

func (f *fakeBackend) ListNotebook(ctx context.Context) ([]models.NotebookEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NotebookEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeBackend) AddToNotebook(ctx context.Context, vocabularyID int64, note string) (*models.NotebookEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, vocabularyID)
	e := &models.NotebookEntry{ID: int64(len(f.saved)), Note: note, Vocabulary: models.Vocabulary{ID: vocabularyID}}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, entryID int64, note string) (*models.NotebookEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, &gateway.APIError{Op: "update note", Status: 404}
	}
	e.Note = note
	return e, nil
}

func (f *fakeBackend) DeleteEntry(ctx context.Context, entryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.entries, entryID)
	return nil
}

type testEnv struct {
	db       *database.DB
	sessions *repository.SessionRepository
	states   *repository.StudyStateRepository
	backend  *fakeBackend
	auth     *AuthService
	tokens   *security.SessionTokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), ""))

	vault, err := security.NewVault(testSecret)
	require.NoError(t, err)
	tokens, err := security.NewSessionTokens(testSecret)
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		sessions: repository.NewSessionRepository(db),
		states:   repository.NewStudyStateRepository(db),
		backend:  newFakeBackend(),
		tokens:   tokens,
	}
	env.auth = NewAuthService(env.sessions, vault, tokens, env.backend.factory(), time.Hour, nil)
	return env
}

// login creates a web session for alice
func (e *testEnv) login(t *testing.T) *models.WebSession {
	t.Helper()
	ws, _, err := e.auth.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	return ws
}

var errBackendDown = errors.New("backend down")
