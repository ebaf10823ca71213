package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabflow/internal/models"
	"vocabflow/internal/session"
)

func fillBlank(id int64, word string) *models.Item {
	return &models.Item{ID: id, VocabularyID: id, Kind: models.KindFillBlank, Word: word, Content: "The ___."}
}

func newStudy(env *testEnv, policy session.SkipPolicy) *StudyService {
	return NewStudyService(env.states, env.backend.factory(), env.auth, session.Options{SkipPolicy: policy})
}

func TestStudyOpenStartsAndPersists(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()
	scope := models.TopicScope(4)

	st, err := study.Open(ctx, ws, scope, false)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenItem, st.Screen)
	assert.Equal(t, int64(1), st.CurrentItem.ID)

	saved, err := env.states.GetState(ctx, ws.ID, scope)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.ScreenItem, saved.Screen)

	// opening again does not refetch
	again, err := study.Open(ctx, ws, scope, false)
	require.NoError(t, err)
	assert.Equal(t, st.Generation, again.Generation)
}

func TestStudyFullLoop(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat"), fillBlank(2, "dog")}
	env.backend.verdicts[1] = true
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()
	scope := models.TopicScope(1)

	_, err := study.Open(ctx, ws, scope, false)
	require.NoError(t, err)

	st, err := study.Submit(ctx, ws, scope, &models.Answer{Text: "cat"})
	require.NoError(t, err)
	assert.Equal(t, models.ScreenCorrect, st.Screen)

	st, err = study.Save(ctx, ws, scope)
	require.NoError(t, err)
	assert.True(t, st.Saved)
	assert.Equal(t, []int64{1}, env.backend.saved)

	_, err = study.Save(ctx, ws, scope)
	assert.ErrorIs(t, err, ErrCannotSave)

	st, err = study.Next(ctx, ws, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.CurrentItem.ID)
	assert.False(t, st.Saved)

	st, err = study.Skip(ctx, ws, scope)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenWrong, st.Screen)
	assert.True(t, st.Result.Skipped)

	st, err = study.Next(ctx, ws, scope)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenFinished, st.Screen)
	assert.Len(t, env.backend.submissions, 1, "local skip never reaches the backend")
}

func TestStudyRestoresAfterRestart(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat"), fillBlank(2, "dog")}
	ws := env.login(t)
	ctx := context.Background()
	scope := models.NotebookScope()

	first := newStudy(env, session.SkipLocal)
	_, err := first.Open(ctx, ws, scope, false)
	require.NoError(t, err)
	_, err = first.Select(ctx, ws, scope, models.Answer{Text: "ca"})
	require.NoError(t, err)

	// a new service has no live controllers and reads the store
	second := newStudy(env, session.SkipLocal)
	st, err := second.State(ctx, ws, scope)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenItem, st.Screen)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "ca", st.Selected.Text)

	st, err = second.Submit(ctx, ws, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenWrong, st.Screen)

	scopes, err := second.ActiveScopes(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, []models.Scope{scope}, scopes)
}

func TestStudyWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)

	_, err := study.Next(context.Background(), ws, models.TopicScope(9))
	assert.ErrorIs(t, err, ErrNoStudySession)
}

func TestStudyFetchFailureIsStoredAndRetried(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	env.backend.fetchErr = errBackendDown
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()
	scope := models.TopicScope(1)

	st, err := study.Open(ctx, ws, scope, false)
	require.Error(t, err)
	assert.Equal(t, models.ScreenLoading, st.Screen)
	assert.NotEmpty(t, st.LastError)

	// a blocked session is not retried just by opening the page
	st, err = study.Open(ctx, ws, scope, false)
	require.NoError(t, err)
	assert.NotEmpty(t, st.LastError)

	env.backend.fetchErr = nil
	st, err = study.Retry(ctx, ws, scope)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenItem, st.Screen)
	assert.Empty(t, st.LastError)
}

func TestStudyRestartAndForget(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()
	scope := models.TopicScope(1)

	_, err := study.Open(ctx, ws, scope, false)
	require.NoError(t, err)
	_, err = study.Skip(ctx, ws, scope)
	require.NoError(t, err)
	_, err = study.Next(ctx, ws, scope)
	require.NoError(t, err)

	st, err := study.Open(ctx, ws, scope, true)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenItem, st.Screen)
	assert.Empty(t, st.Excluded)

	require.NoError(t, study.Forget(ctx, ws, scope))
	saved, err := env.states.GetState(ctx, ws.ID, scope)
	require.NoError(t, err)
	assert.Nil(t, saved)
	_, err = study.State(ctx, ws, scope)
	assert.ErrorIs(t, err, ErrNoStudySession)
}

func TestStudySaveOnlyInTopics(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()

	_, err := study.Open(ctx, ws, models.NotebookScope(), false)
	require.NoError(t, err)
	_, err = study.Skip(ctx, ws, models.NotebookScope())
	require.NoError(t, err)
	_, err = study.Save(ctx, ws, models.NotebookScope())
	assert.ErrorIs(t, err, ErrCannotSave)
	assert.Empty(t, env.backend.saved)
}

func TestStudyEviction(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()

	now := time.Now()
	study.now = func() time.Time { return now }
	_, err := study.Open(ctx, ws, models.TopicScope(1), false)
	require.NoError(t, err)

	assert.Equal(t, 0, study.EvictIdle(time.Hour))
	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, study.EvictIdle(time.Hour))

	// still restorable from the store
	st, err := study.State(ctx, ws, models.TopicScope(1))
	require.NoError(t, err)
	assert.Equal(t, models.ScreenItem, st.Screen)

	study.Evict(ws.ID)
	assert.Equal(t, 0, study.EvictIdle(0))
}

func TestStudySyncsRotatedCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat")}
	ws := env.login(t)
	study := newStudy(env, session.SkipLocal)
	ctx := context.Background()

	env.backend.rotateCSRF = "rotated"
	_, err := study.Open(ctx, ws, models.TopicScope(1), false)
	require.NoError(t, err)
	assert.Equal(t, "rotated", ws.Credentials.CSRFToken)
}

// gatedStore holds the first armed save until release is closed
type gatedStore struct {
	StudyStateStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) SaveState(ctx context.Context, sessionID string, st *models.SessionState) error {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.StudyStateStore.SaveState(ctx, sessionID, st)
}

func TestStudySlowSaveDoesNotOverwriteNewerState(t *testing.T) {
	env := newTestEnv(t)
	env.backend.items = []*models.Item{fillBlank(1, "cat"), fillBlank(2, "dog"), fillBlank(3, "owl")}
	ws := env.login(t)
	store := &gatedStore{StudyStateStore: env.states, entered: make(chan struct{}), release: make(chan struct{})}
	study := NewStudyService(store, env.backend.factory(), env.auth, session.Options{SkipPolicy: session.SkipLocal})
	ctx := context.Background()
	scope := models.TopicScope(1)

	_, err := study.Open(ctx, ws, scope, false)
	require.NoError(t, err)

	store.armed.Store(true)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := study.Skip(ctx, ws, scope)
		assert.NoError(t, err)
	}()
	<-store.entered

	nextDone := make(chan *models.SessionState, 1)
	go func() {
		st, err := study.Next(ctx, ws, scope)
		assert.NoError(t, err)
		nextDone <- st
	}()
	// give Next the chance to save first if saves were unordered
	select {
	case <-nextDone:
		t.Fatal("Next saved while an earlier save was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)
	wg.Wait()
	latest := <-nextDone

	assert.Equal(t, models.ScreenItem, latest.Screen)
	saved, err := env.states.GetState(ctx, ws.ID, scope)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.ScreenItem, saved.Screen)
	assert.Equal(t, int64(2), saved.CurrentItem.ID)
	assert.Equal(t, latest.Generation, saved.Generation)
}
