package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vocabflow/internal/database"
	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
	"vocabflow/internal/repository"
	"vocabflow/internal/security"
	"vocabflow/internal/service"
	"vocabflow/internal/session"
	"vocabflow/internal/templates"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeBackend stands in for the vocabulary API
type fakeBackend struct {
	mu sync.Mutex

	items       []*models.Item
	verdicts    map[int64]bool
	fetchErr    error
	topicsErr   error
	submissions []models.Submission
	saved       []int64
	entries     map[int64]*models.NotebookEntry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		verdicts: map[int64]bool{},
		entries: map[int64]*models.NotebookEntry{
			5: {ID: 5, Note: "old note", Vocabulary: models.Vocabulary{ID: 50, Word: "pear", MeaningSentence: "a fruit"}},
		},
	}
}

func (f *fakeBackend) NextItem(ctx context.Context, scope models.Scope, excluded models.IDSet) (models.NextItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if password != "secret" {
		return models.Credentials{}, gateway.ErrInvalidLogin
	}
	return models.Credentials{SessionCookie: "django-" + username, CSRFToken: "csrf"}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error { return nil }

func (f *fakeBackend) Profile(ctx context.Context) (*models.Profile, error) {
	return &models.Profile{ID: 1, Username: "alice", Email: "alice@example.com"}, nil
}

func (f *fakeBackend) Credentials() models.Credentials {
	return models.Credentials{SessionCookie: "django-alice", CSRFToken: "csrf"}
}

func (f *fakeBackend) Stats(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{
		TotalWords:    42,
		MasteredCount: 12,
		Streak:        3,
		DailyStats:    []models.DailyStat{{StudyDate: "2026-03-09", Total: 10, Correct: 7}},
		MostWrong:     []models.WrongWord{{Word: "though", MeaningSentence: "despite", WrongCount: 2}},
	}, nil
}

func (f *fakeBackend) Topics(ctx context.Context) ([]models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topicsErr != nil {
		return nil, f.topicsErr
	}
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
	return &models.NotebookEntry{ID: 99, Vocabulary: models.Vocabulary{ID: vocabularyID}}, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, entryID int64, note string) (*models.NotebookEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, &gateway.APIError{Op: "update note", Status: http.StatusNotFound}
	}
	e.Note = note
	return e, nil
}

func (f *fakeBackend) DeleteEntry(ctx context.Context, entryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, entryID)
	return nil
}

type fakeDigest struct{ sent int }

func (f *fakeDigest) IsEnabled() bool { return true }

func (f *fakeDigest) SendStatsDigest(ctx context.Context, toEmail, toName string, stats models.Stats) error {
	f.sent++
	return nil
}

type testServer struct {
	handler  http.Handler
	backend  *fakeBackend
	digest   *fakeDigest
	sessions *repository.SessionRepository
	tokens   *security.SessionTokens
	csrf     *security.CSRFGenerator
	startup  *StartupStatus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), ""))

	vault, err := security.NewVault(testSecret)
	require.NoError(t, err)
	tokens, err := security.NewSessionTokens(testSecret)
	require.NoError(t, err)
	csrf, err := security.NewCSRFGenerator(testSecret)
	require.NoError(t, err)
	tmpl, err := templates.Load("")
	require.NoError(t, err)

	backend := newFakeBackend()
	factory := func(models.Credentials) (service.Backend, error) { return backend, nil }

	sessions := repository.NewSessionRepository(db)
	auth := service.NewAuthService(sessions, vault, tokens, factory, time.Hour, nil)
	study := service.NewStudyService(repository.NewStudyStateRepository(db), factory, auth, session.Options{SkipPolicy: session.SkipLocal})
	digest := &fakeDigest{}
	p := presenter.New("http://backend.test")

	m := NewMiddleware(auth, study, csrf, security.NewRateLimiter(0.01, 3, time.Minute), nil)
	startup := NewStartupStatus(StepDatabase)
	routes := &Routes{
		Middleware: m,
		Auth:       NewAuthHandler(auth, m, tmpl),
		Study:      NewStudyHandler(study, p, m, tmpl),
		Notebook:   NewNotebookHandler(service.NewNotebookService(), p, m, tmpl),
		Dashboard:  NewDashboardHandler(service.NewStatsService(digest), study, digest, p, m, tmpl),
		Health:     Health(startup, db),
	}
	mux := http.NewServeMux()
	routes.Register(mux)

	return &testServer{
		handler:  mux,
		backend:  backend,
		digest:   digest,
		sessions: sessions,
		tokens:   tokens,
		csrf:     csrf,
		startup:  startup,
	}
}

// client is a logged-in browser
type client struct {
	srv       *testServer
	cookie    *http.Cookie
	sessionID string
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (s *testServer) login(t *testing.T) *client {
	t.Helper()
	rec := s.serve(s.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login sets the session cookie")
	claims, err := s.tokens.Parse(cookie.Value)
	require.NoError(t, err)
	return &client{srv: s, cookie: cookie, sessionID: claims.SessionID}
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(c.cookie)
	return c.srv.serve(req)
}

// post submits a form with a valid CSRF token
func (c *client) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	token, err := c.srv.csrf.GenerateToken(c.sessionID)
	require.NoError(t, err)
	form.Set(security.CSRFFormField, token)
	req := c.srv.postForm(path, form)
	req.AddCookie(c.cookie)
	return c.srv.serve(req)
}
