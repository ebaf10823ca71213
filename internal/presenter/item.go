package presenter

import "vocabflow/internal/models"

// OptionView is one answer button
type OptionView struct {
	ID       int64
	Label    string
	Selected bool
}

// ItemView is the item screen. Exactly one modality is interactable; the
// fields of the other modalities are left empty.
type ItemView struct {
	ID           int64
	VocabularyID int64
	Kind         models.ItemKind
	Modality     Modality

	// Face fields. Set only while a flashcard shows its face.
	Word       string
	Phonetic   string
	Definition string
	Meaning    string

	Instruction string
	Prompt      string
	AudioURL    string
	ImageURL    string

	Options []OptionView
	Text    string

	CanSubmit  bool
	Submitting bool
}

// HasAudio reports whether the audio player should be rendered
func (v ItemView) HasAudio() bool { return v.AudioURL != "" }

// HasImage reports whether the image should be rendered
func (v ItemView) HasImage() bool { return v.ImageURL != "" }

// Item renders the current item. It returns the zero view when the session
// is not on the item screen.
func (p *Presenter) Item(state *models.SessionState) ItemView {
	if state == nil || state.Screen != models.ScreenItem || state.CurrentItem == nil {
		return ItemView{}
	}
	it := state.CurrentItem
	v := ItemView{
		ID:           it.ID,
		VocabularyID: it.VocabularyID,
		Kind:         it.Kind,
		Instruction:  it.Instruction,
		Submitting:   state.InFlight,
	}

	switch {
	case it.Kind == models.KindFlashcard && !state.QuizStarted:
		v.Modality = ModalityFace
		v.Word = it.Word
		v.Phonetic = it.Phonetic
		v.Definition = it.Definition
		v.Meaning = it.Meaning
		v.AudioURL = p.mediaURL(it.Audio)
		v.ImageURL = p.mediaURL(it.Image)
		return v
	case it.HasChoices():
		v.Modality = ModalityChoice
		v.Options = make([]OptionView, len(it.Options))
		for i, o := range it.Options {
			v.Options[i] = OptionView{
				ID:       o.ID,
				Label:    o.Label,
				Selected: state.Selected != nil && state.Selected.OptionID == o.ID,
			}
		}
	default:
		v.Modality = ModalityText
		if state.Selected != nil {
			v.Text = state.Selected.Text
		}
	}

	v.Prompt = quizPrompt(it)
	if quizKind(it) == models.KindListening {
		v.AudioURL = p.mediaURL(it.Audio)
	}
	v.CanSubmit = !state.InFlight && state.Selected != nil && state.Selected.ValidFor(it)
	return v
}

// quizKind is the question type actually asked for the item
func quizKind(it *models.Item) models.ItemKind {
	if it.Kind == models.KindFlashcard {
		return it.QuizType
	}
	return it.Kind
}

// quizPrompt is the text shown above the answer input
func quizPrompt(it *models.Item) string {
	if it.Content != "" {
		return it.Content
	}
	if it.Kind == models.KindFlashcard && it.QuizType != models.KindListening {
		if it.Meaning != "" {
			return it.Meaning
		}
		return it.Definition
	}
	return ""
}
