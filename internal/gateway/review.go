package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vocabflow/internal/models"
)

// SkipSelection is the selected_id the backend treats as "no answer"
const SkipSelection = -1

type optionPayload struct {
	VocabularyID int64  `json:"vocabulary_id"`
	Word         string `json:"word"`
}

type questionPayload struct {
	Finished     bool            `json:"finished"`
	VocabularyID int64           `json:"vocabulary_id"`
	ID           int64           `json:"id"`
	Type         string          `json:"type"`
	Kind         string          `json:"kind"`
	Word         string          `json:"word"`
	Phonetic     string          `json:"phonetic"`
	Definition   string          `json:"definition"`
	Meaning      string          `json:"meaning"`
	Instruction  string          `json:"instruction"`
	Content      string          `json:"content"`
	Audio        string          `json:"audio"`
	Image        string          `json:"image"`
	Options      []optionPayload `json:"options"`
}

func (p questionPayload) toItem() (*models.Item, error) {
	id := p.VocabularyID
	if id == 0 {
		id = p.ID
	}
	if id == 0 {
		return nil, fmt.Errorf("question has no vocabulary id")
	}

	kind := models.ItemKind(firstNonEmpty(p.Type, p.Kind))
	switch kind {
	case models.KindListening, models.KindFillBlank:
	default:
		return nil, fmt.Errorf("unknown question type %q", kind)
	}

	item := &models.Item{
		ID:           id,
		VocabularyID: id,
		Kind:         kind,
		Word:         p.Word,
		Phonetic:     p.Phonetic,
		Definition:   p.Definition,
		Meaning:      p.Meaning,
		Instruction:  p.Instruction,
		Content:      p.Content,
		Audio:        p.Audio,
		Image:        p.Image,
	}
	if kind == models.KindListening {
		// is_correct on options is ignored; the verdict comes from submit.
		for _, o := range p.Options {
			item.Options = append(item.Options, models.Option{ID: o.VocabularyID, Label: o.Word})
		}
		if len(item.Options) == 0 {
			return nil, fmt.Errorf("listening question %d has no options", id)
		}
	}
	return item, nil
}

// NextQuestion asks for the next notebook review question
func (c *Client) NextQuestion(ctx context.Context, excluded models.IDSet) (models.NextItem, error) {
	const op = "next review question"

	var payload questionPayload
	if err := c.do(ctx, op, http.MethodGet, "api/notebook-review/question/", excludedQuery(excluded), nil, &payload); err != nil {
		return models.NextItem{}, err
	}
	if payload.Finished {
		return models.NextItem{Finished: true}, nil
	}

	item, err := payload.toItem()
	if err != nil {
		return models.NextItem{}, &DecodeError{Op: op, Err: err}
	}
	return models.NextItem{Item: item}, nil
}

// reviewSubmitBody builds the body for a notebook review answer
func reviewSubmitBody(item *models.Item, answer models.Answer, skip bool) map[string]any {
	body := map[string]any{
		"vocabulary_id": item.VocabularyID,
		"type":          string(item.Kind),
	}
	switch {
	case skip:
		body["selected_id"] = SkipSelection
	case item.HasChoices():
		body["selected_id"] = answer.OptionID
	default:
		body["user_answer"] = answer.Trimmed()
	}
	return body
}

// SubmitReview posts an answer to a notebook review question. With skip
// set the answer is ignored and the skip sentinel is sent instead.
func (c *Client) SubmitReview(ctx context.Context, item *models.Item, answer models.Answer, skip bool) (*models.SubmissionResult, error) {
	var payload resultPayload
	body := reviewSubmitBody(item, answer, skip)
	if err := c.do(ctx, "submit review", http.MethodPost, "api/notebook-review/submit/", nil, body, &payload); err != nil {
		return nil, err
	}
	return payload.toResult(), nil
}
