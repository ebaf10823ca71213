// Package session drives one study or review session: it fetches items,
// tracks which items were already shown, submits answers and moves between
// screens. All state lives in a models.SessionState owned by the Controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"vocabflow/internal/models"
)

var (
	ErrInvalidTransition  = errors.New("action not allowed on the current screen")
	ErrInvalidAnswer      = errors.New("answer is empty or not one of the options")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrRepeatedItem       = errors.New("backend returned an item already shown in this session")
	ErrFinished           = errors.New("session is finished")
)

// Gateway is the part of the backend a controller needs
type Gateway interface {
	NextItem(ctx context.Context, scope models.Scope, excluded models.IDSet) (models.NextItem, error)
	Submit(ctx context.Context, scope models.Scope, sub models.Submission) (*models.SubmissionResult, error)
}

// SkipPolicy decides what Skip does on the item screen
type SkipPolicy string

const (
	// SkipLocal shows the wrong screen without calling the backend
	SkipLocal SkipPolicy = "local"
	// SkipSubmit posts a sentinel answer and moves straight to the next item
	SkipSubmit SkipPolicy = "submit"
)

// ParseSkipPolicy validates a configured skip policy
func ParseSkipPolicy(s string) (SkipPolicy, error) {
	switch SkipPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case SkipLocal, "":
		return SkipLocal, nil
	case SkipSubmit:
		return SkipSubmit, nil
	default:
		return "", fmt.Errorf("unknown skip policy %q (want local or submit)", s)
	}
}

// Options configures a Controller
type Options struct {
	SkipPolicy SkipPolicy
	Logger     *slog.Logger
}

// Controller is the state machine for one session. It is safe for
// concurrent use; the lock is not held while the gateway is called.
type Controller struct {
	mu     sync.Mutex
	gw     Gateway
	state  *models.SessionState
	policy SkipPolicy
	logger *slog.Logger
}

// New creates a controller for scope. Call Start to fetch the first item.
func New(gw Gateway, scope models.Scope, opts Options) *Controller {
	return Restore(gw, models.NewSessionState(scope), opts)
}

// Restore creates a controller from a saved state. A submission that was in
// flight when the state was saved is treated as failed.
func Restore(gw Gateway, state *models.SessionState, opts Options) *Controller {
	st := state.Clone()
	if st.Excluded == nil {
		st.Excluded = models.NewIDSet()
	}
	st.InFlight = false

	policy := opts.SkipPolicy
	if policy == "" {
		policy = SkipLocal
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{gw: gw, state: st, policy: policy, logger: logger}
}

// State returns a copy of the current state
func (c *Controller) State() *models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SkipPolicy returns the policy the controller was built with
func (c *Controller) SkipPolicy() SkipPolicy {
	return c.policy
}

// Start resets the session and fetches the first item
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	gen := c.state.Generation + 1
	c.state = models.NewSessionState(c.state.Scope)
	c.state.Generation = gen
	c.mu.Unlock()

	return c.fetch(ctx, gen, models.NewIDSet())
}

// Retry fetches again after a failed fetch left the session loading
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Screen != models.ScreenLoading {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	gen, excluded := c.beginFetch()
	c.mu.Unlock()

	return c.fetch(ctx, gen, excluded)
}

// StartQuiz turns the flashcard face into its question
func (c *Controller) StartQuiz() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != models.ScreenItem || c.state.CurrentItem.Kind != models.KindFlashcard {
		return ErrInvalidTransition
	}
	c.state.QuizStarted = true
	return nil
}

// Select records the pending answer for the current item
func (c *Controller) Select(answer models.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != models.ScreenItem || c.awaitingQuiz() {
		return ErrInvalidTransition
	}
	c.state.Selected = &answer
	return nil
}

// CanSubmit reports whether Submit would reach the backend
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit() == nil
}

func (c *Controller) canSubmit() error {
	st := c.state
	if st.Screen != models.ScreenItem || c.awaitingQuiz() {
		return ErrInvalidTransition
	}
	if st.InFlight {
		return ErrSubmissionInFlight
	}
	if st.Selected == nil || !st.Selected.ValidFor(st.CurrentItem) {
		return ErrInvalidAnswer
	}
	return nil
}

// awaitingQuiz reports whether a flashcard is still showing its face
func (c *Controller) awaitingQuiz() bool {
	item := c.state.CurrentItem
	return item != nil && item.Kind == models.KindFlashcard && !c.state.QuizStarted
}

// Submit posts the selected answer. With a non-nil answer it replaces the
// current selection first. The screen moves to correct or wrong according
// to the backend's verdict.
func (c *Controller) Submit(ctx context.Context, answer *models.Answer) error {
	c.mu.Lock()
	if answer != nil && c.state.Screen == models.ScreenItem && !c.state.InFlight && !c.awaitingQuiz() {
		a := *answer
		c.state.Selected = &a
	}
	if err := c.canSubmit(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.InFlight = true
	item := c.state.CurrentItem
	sub := models.Submission{Item: item, Answer: *c.state.Selected}
	scope := c.state.Scope
	gen := c.state.Generation
	c.mu.Unlock()

	result, err := c.gw.Submit(ctx, scope, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Generation != gen {
		c.logger.Debug("dropping submission result from an earlier session", "scope", scope.Key())
		return nil
	}
	c.state.InFlight = false
	if err != nil {
		// The backend may have recorded the attempt even though we saw an error.
		c.state.LastError = err.Error()
		return fmt.Errorf("submit answer: %w", err)
	}

	c.state.LastError = ""
	c.state.Answered = item
	c.state.Result = result
	if result.IsCorrect {
		c.state.Screen = models.ScreenCorrect
	} else {
		c.state.Screen = models.ScreenWrong
	}
	return nil
}

// Next excludes the answered item and fetches the following one
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	switch c.state.Screen {
	case models.ScreenCorrect, models.ScreenWrong:
	case models.ScreenFinished:
		c.mu.Unlock()
		return ErrFinished
	default:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.excludeAnswered()
	gen, excluded := c.beginFetch()
	c.mu.Unlock()

	return c.fetch(ctx, gen, excluded)
}

// Skip gives up on the current item according to the skip policy. On the
// correct and wrong screens it behaves as Next.
func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	switch c.state.Screen {
	case models.ScreenCorrect, models.ScreenWrong:
		c.mu.Unlock()
		return c.Next(ctx)
	case models.ScreenItem:
	case models.ScreenFinished:
		c.mu.Unlock()
		return ErrFinished
	default:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if c.state.InFlight {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}

	item := c.state.CurrentItem
	if c.policy == SkipLocal {
		defer c.mu.Unlock()
		c.state.Answered = item
		c.state.Result = &models.SubmissionResult{
			Word:     item.Word,
			Meaning:  item.Meaning,
			Phonetic: item.Phonetic,
			Audio:    item.Audio,
			Skipped:  true,
		}
		c.state.LastError = ""
		c.state.Screen = models.ScreenWrong
		return nil
	}

	c.state.InFlight = true
	scope := c.state.Scope
	gen := c.state.Generation
	c.mu.Unlock()

	_, err := c.gw.Submit(ctx, scope, models.Submission{Item: item, Skip: true})

	c.mu.Lock()
	if c.state.Generation != gen {
		c.mu.Unlock()
		return nil
	}
	c.state.InFlight = false
	if err != nil {
		c.state.LastError = err.Error()
		c.mu.Unlock()
		return fmt.Errorf("skip item: %w", err)
	}
	c.state.Answered = item
	c.excludeAnswered()
	gen, excluded := c.beginFetch()
	c.mu.Unlock()

	return c.fetch(ctx, gen, excluded)
}

// MarkSaved records that the answered word was added to the notebook
func (c *Controller) MarkSaved() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != models.ScreenCorrect && c.state.Screen != models.ScreenWrong {
		return ErrInvalidTransition
	}
	c.state.Saved = true
	return nil
}

// excludeAnswered adds the answered item to the excluded set. Callers hold mu.
func (c *Controller) excludeAnswered() {
	if item := c.state.Answered; item != nil {
		c.state.Excluded.Add(item.ID)
	} else if item := c.state.CurrentItem; item != nil {
		c.state.Excluded.Add(item.ID)
	}
}

// beginFetch moves to loading and claims a new generation. Callers hold mu.
func (c *Controller) beginFetch() (uint64, models.IDSet) {
	c.state.Generation++
	c.state.Screen = models.ScreenLoading
	c.state.CurrentItem = nil
	c.state.Selected = nil
	c.state.QuizStarted = false
	c.state.Answered = nil
	c.state.Result = nil
	c.state.Saved = false
	return c.state.Generation, c.state.Excluded.Clone()
}

// fetch asks the backend for the next item and applies the response unless
// a newer fetch or a reset happened meanwhile.
func (c *Controller) fetch(ctx context.Context, gen uint64, excluded models.IDSet) error {
	c.mu.Lock()
	scope := c.state.Scope
	c.mu.Unlock()

	next, err := c.gw.NextItem(ctx, scope, excluded)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Generation != gen {
		c.logger.Debug("dropping stale fetch response", "scope", scope.Key(), "generation", gen)
		return nil
	}
	if err != nil {
		c.state.LastError = err.Error()
		return fmt.Errorf("fetch next item: %w", err)
	}

	if next.Finished {
		c.state.Screen = models.ScreenFinished
		c.state.LastError = ""
		return nil
	}
	if next.Item == nil {
		c.state.LastError = "backend returned neither an item nor finished"
		return fmt.Errorf("fetch next item: empty response")
	}
	if c.state.Excluded.Has(next.Item.ID) {
		c.state.LastError = ErrRepeatedItem.Error()
		c.logger.Warn("backend repeated an excluded item", "scope", scope.Key(), "item_id", next.Item.ID)
		return ErrRepeatedItem
	}

	c.state.CurrentItem = next.Item
	c.state.Screen = models.ScreenItem
	c.state.LastError = ""
	return nil
}
