package presenter

import "vocabflow/internal/models"

// ResultView is the correct or wrong screen
type ResultView struct {
	Correct      bool
	Skipped      bool
	VocabularyID int64
	Word         string
	Phonetic     string
	Meaning      string
	AudioURL     string
	NewLevel     int
	HasLevel     bool
	CanSave      bool
	Saved        bool
}

// Result renders the verdict for the item that was just answered. It reads
// the answered snapshot and never the current item, so a fetch that is
// already under way cannot leak into the feedback.
func (p *Presenter) Result(state *models.SessionState) ResultView {
	if state == nil || state.Result == nil {
		return ResultView{}
	}
	if state.Screen != models.ScreenCorrect && state.Screen != models.ScreenWrong {
		return ResultView{}
	}
	res := state.Result
	v := ResultView{
		Correct:  res.IsCorrect && !res.Skipped,
		Skipped:  res.Skipped,
		Word:     res.Word,
		Meaning:  res.Meaning,
		Phonetic: res.Phonetic,
		Saved:    state.Saved,
	}
	audio := res.Audio
	if res.NewLevel != nil {
		v.NewLevel = *res.NewLevel
		v.HasLevel = true
	}

	// Review verdicts carry only is_correct; fill the rest from the snapshot.
	if it := state.Answered; it != nil {
		v.VocabularyID = it.VocabularyID
		if v.Word == "" {
			v.Word = it.Word
		}
		if v.Meaning == "" {
			v.Meaning = firstNonEmpty(it.Meaning, it.Definition)
		}
		if v.Phonetic == "" {
			v.Phonetic = it.Phonetic
		}
		if audio == "" {
			audio = it.Audio
		}
	}
	v.AudioURL = p.mediaURL(audio)
	v.CanSave = state.Scope.Kind == models.ScopeTopic && v.VocabularyID != 0 && !v.Saved
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
