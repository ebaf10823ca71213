package presenter

import "vocabflow/internal/models"

// ScreenView is the complete study page for one state. Exactly one of the
// screen sections is visible.
type ScreenView struct {
	Screen   models.Screen
	ScopeKey string
	TopicID  int64
	Notebook bool

	Loading  bool
	Finished bool
	Item     *ItemView
	Result   *ResultView

	// Error is set when the last fetch or submit failed. On the loading
	// screen it blocks until the user retries.
	Error    string
	CanRetry bool
	CanSkip  bool
	Excluded int
}

// Visible returns how many screen sections the view shows
func (v ScreenView) Visible() int {
	n := 0
	for _, on := range []bool{v.Loading, v.Finished, v.Item != nil, v.Result != nil} {
		if on {
			n++
		}
	}
	return n
}

// Screen renders the whole study page from state
func (p *Presenter) Screen(state *models.SessionState) ScreenView {
	if state == nil {
		return ScreenView{Screen: models.ScreenLoading, Loading: true}
	}
	v := ScreenView{
		Screen:   state.Screen,
		ScopeKey: state.Scope.Key(),
		TopicID:  state.Scope.TopicID,
		Notebook: state.Scope.Kind == models.ScopeNotebook,
		Error:    state.LastError,
		Excluded: len(state.Excluded),
	}

	switch state.Screen {
	case models.ScreenItem:
		if state.CurrentItem == nil {
			v.Screen = models.ScreenLoading
			v.Loading = true
			break
		}
		item := p.Item(state)
		v.Item = &item
		v.CanSkip = !state.InFlight
	case models.ScreenCorrect, models.ScreenWrong:
		if state.Result == nil {
			v.Screen = models.ScreenLoading
			v.Loading = true
			break
		}
		result := p.Result(state)
		v.Result = &result
		v.CanSkip = true
	case models.ScreenFinished:
		v.Finished = true
	default:
		v.Screen = models.ScreenLoading
		v.Loading = true
	}
	v.CanRetry = v.Loading && v.Error != ""
	return v
}
