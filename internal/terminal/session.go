package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
	"vocabflow/internal/session"
)

// Saver adds the vocabulary behind the answered item to the notebook
type Saver func(ctx context.Context, vocabularyID int64) error

// Session runs a study controller against line-oriented input
type Session struct {
	ctrl   *session.Controller
	pres   *presenter.Presenter
	render *Renderer
	save   Saver
	in     *bufio.Scanner
	out    io.Writer
}

// NewSession wires a controller to in and out. save may be nil, in which
// case :save is not offered.
func NewSession(ctrl *session.Controller, pres *presenter.Presenter, in io.Reader, out io.Writer, save Saver) *Session {
	return &Session{
		ctrl:   ctrl,
		pres:   pres,
		render: NewRenderer(out),
		save:   save,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run starts the session and loops until it finishes, the input ends or
// the user types :quit. Only an authorization failure is returned as an
// error; anything else is shown on screen and the loop goes on.
func (s *Session) Run(ctx context.Context) error {
	if err := s.ctrl.Start(ctx); err != nil && errors.Is(err, gateway.ErrUnauthorized) {
		return err
	}
	for {
		view := s.pres.Screen(s.ctrl.State())
		if s.save == nil && view.Result != nil {
			view.Result.CanSave = false
		}
		fmt.Fprintln(s.out, s.render.Screen(view))
		if view.Finished {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.in.Scan() {
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == ":quit" || line == ":q" {
			return nil
		}

		err := s.dispatch(ctx, view, line)
		switch {
		case err == nil, isInert(err):
		case errors.Is(err, gateway.ErrUnauthorized):
			return err
		case errors.Is(err, errSaveFailed):
			fmt.Fprintln(s.out, s.render.errText.Render(err.Error()))
		}
	}
}

var errSaveFailed = errors.New("could not save the word")

func (s *Session) dispatch(ctx context.Context, view presenter.ScreenView, line string) error {
	switch {
	case view.Loading:
		return s.ctrl.Retry(ctx)
	case view.Item != nil:
		if line == ":skip" {
			return s.ctrl.Skip(ctx)
		}
		return s.answer(ctx, *view.Item, line)
	case view.Result != nil:
		switch line {
		case ":skip":
			return s.ctrl.Skip(ctx)
		case ":save":
			if !view.Result.CanSave {
				return nil
			}
			if err := s.save(ctx, view.Result.VocabularyID); err != nil {
				if errors.Is(err, gateway.ErrUnauthorized) {
					return err
				}
				return fmt.Errorf("%w: %v", errSaveFailed, err)
			}
			return s.ctrl.MarkSaved()
		}
		return s.ctrl.Next(ctx)
	}
	return nil
}

func (s *Session) answer(ctx context.Context, item presenter.ItemView, line string) error {
	switch item.Modality {
	case presenter.ModalityFace:
		return s.ctrl.StartQuiz()
	case presenter.ModalityChoice:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(item.Options) {
			return session.ErrInvalidAnswer
		}
		return s.ctrl.Submit(ctx, &models.Answer{OptionID: item.Options[n-1].ID})
	default:
		answer := models.TextAnswer(line)
		return s.ctrl.Submit(ctx, &answer)
	}
}

// isInert reports errors that leave the screen as it was without a message
func isInert(err error) bool {
	return errors.Is(err, session.ErrInvalidAnswer) ||
		errors.Is(err, session.ErrInvalidTransition) ||
		errors.Is(err, session.ErrSubmissionInFlight) ||
		errors.Is(err, session.ErrFinished)
}
