package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vocabflow/internal/models"
)

// cardPayload is the backend's study card. vocabulary_id and type are what
// the backend sends; id and kind are accepted as fallbacks.
type cardPayload struct {
	Finished     bool   `json:"finished"`
	CardID       int64  `json:"card_id"`
	VocabularyID int64  `json:"vocabulary_id"`
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Kind         string `json:"kind"`
	Word         string `json:"word"`
	Phonetic     string `json:"phonetic"`
	Definition   string `json:"definition"`
	Meaning      string `json:"meaning"`
	Instruction  string `json:"instruction"`
	Content      string `json:"content"`
	Image        string `json:"image"`
	Audio        string `json:"audio"`
}

func (p cardPayload) toItem() (*models.Item, error) {
	if p.CardID == 0 {
		p.CardID = p.ID
	}
	if p.CardID == 0 {
		return nil, fmt.Errorf("card has no id")
	}
	quiz := models.ItemKind(firstNonEmpty(p.Type, p.Kind))
	if quiz != models.KindListening {
		quiz = models.KindFillBlank
	}
	return &models.Item{
		ID:           p.CardID,
		CardID:       p.CardID,
		VocabularyID: p.VocabularyID,
		Kind:         models.KindFlashcard,
		QuizType:     quiz,
		Word:         p.Word,
		Phonetic:     p.Phonetic,
		Definition:   p.Definition,
		Meaning:      p.Meaning,
		Instruction:  p.Instruction,
		Content:      p.Content,
		Image:        p.Image,
		Audio:        p.Audio,
	}, nil
}

// resultPayload is the verdict shape shared by both submit endpoints
type resultPayload struct {
	IsCorrect bool   `json:"is_correct"`
	Word      string `json:"word"`
	Meaning   string `json:"meaning"`
	Phonetic  string `json:"phonetic"`
	Audio     string `json:"audio"`
	NewLevel  *int   `json:"new_level"`
}

func (p resultPayload) toResult() *models.SubmissionResult {
	return &models.SubmissionResult{
		IsCorrect: p.IsCorrect,
		Word:      p.Word,
		Meaning:   p.Meaning,
		Phonetic:  p.Phonetic,
		Audio:     p.Audio,
		NewLevel:  p.NewLevel,
	}
}

// NextCard asks for the next flashcard of a topic, skipping excluded cards
func (c *Client) NextCard(ctx context.Context, topicID int64, excluded models.IDSet) (models.NextItem, error) {
	const op = "next card"

	var payload cardPayload
	path := fmt.Sprintf("api/study/card/%d/", topicID)
	if err := c.do(ctx, op, http.MethodGet, path, excludedQuery(excluded), nil, &payload); err != nil {
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

// SubmitCard posts a typed answer for a flashcard
func (c *Client) SubmitCard(ctx context.Context, cardID int64, answer string) (*models.SubmissionResult, error) {
	body := map[string]any{
		"card_id":     cardID,
		"user_answer": answer,
	}
	var payload resultPayload
	if err := c.do(ctx, "submit card", http.MethodPost, "api/study/submit/", nil, body, &payload); err != nil {
		return nil, err
	}
	return payload.toResult(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
