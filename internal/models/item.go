package models

import "strings"

// ItemKind identifies how an item is presented and answered
type ItemKind string

const (
	KindFlashcard ItemKind = "flashcard"
	KindListening ItemKind = "listening"
	KindFillBlank ItemKind = "fill_blank"
)

// Option is one choice of a listening question
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Item is one vocabulary unit presented for study or review. Items are
// supplied by the backend and never modified by the client.
type Item struct {
	ID           int64    `json:"id"`
	CardID       int64    `json:"card_id,omitempty"`
	VocabularyID int64    `json:"vocabulary_id"`
	Kind         ItemKind `json:"kind"`
	// QuizType is the question a flashcard turns into once the quiz starts.
	QuizType    ItemKind `json:"quiz_type,omitempty"`
	Word        string   `json:"word"`
	Phonetic    string   `json:"phonetic,omitempty"`
	Definition  string   `json:"definition,omitempty"`
	Meaning     string   `json:"meaning,omitempty"`
	Instruction string   `json:"instruction,omitempty"`
	Content     string   `json:"content,omitempty"`
	Audio       string   `json:"audio,omitempty"`
	Image       string   `json:"image,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// HasChoices reports whether the item is answered by picking an option
func (i *Item) HasChoices() bool {
	return len(i.Options) > 0
}

// HasOption reports whether id is one of the item's options
func (i *Item) HasOption(id int64) bool {
	for _, o := range i.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Answer is the user's pending response to the current item: either a
// selected option or free text.
type Answer struct {
	OptionID int64  `json:"option_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// TextAnswer builds a free-text answer
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// ChoiceAnswer builds an option answer
func ChoiceAnswer(optionID int64) Answer {
	return Answer{OptionID: optionID}
}

// IsChoice reports whether the answer selects an option
func (a Answer) IsChoice() bool {
	return a.OptionID != 0
}

// Trimmed returns the free-text answer without surrounding whitespace
func (a Answer) Trimmed() string {
	return strings.TrimSpace(a.Text)
}

// ValidFor reports whether the answer can be submitted for item.
// Choice items need one of their own options; text items need non-blank text.
func (a Answer) ValidFor(item *Item) bool {
	if item == nil {
		return false
	}
	if item.HasChoices() {
		return a.IsChoice() && item.HasOption(a.OptionID)
	}
	return a.Trimmed() != ""
}

// SubmissionResult is the backend's verdict on one answer
type SubmissionResult struct {
	IsCorrect bool   `json:"is_correct"`
	Word      string `json:"word,omitempty"`
	Meaning   string `json:"meaning,omitempty"`
	Phonetic  string `json:"phonetic,omitempty"`
	Audio     string `json:"audio,omitempty"`
	NewLevel  *int   `json:"new_level,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// NextItem is the outcome of asking the backend for the next item
type NextItem struct {
	Finished bool
	Item     *Item
}

// Submission is what gets posted for the current item
type Submission struct {
	Item   *Item
	Answer Answer
	// Skip marks a sentinel submission that carries no real answer.
	Skip bool
}
