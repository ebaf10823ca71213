package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"vocabflow/internal/models"
)

// Stats returns the user's study overview
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, "stats", http.MethodGet, "api/stats/", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Topics returns the topics available for study. Both a bare list and a
// paginated {"results": [...]} body are accepted.
func (c *Client) Topics(ctx context.Context) ([]models.Topic, error) {
	const op = "topics"

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, "api/topics/", nil, nil, &raw); err != nil {
		return nil, err
	}

	var topics []models.Topic
	if err := json.Unmarshal(raw, &topics); err == nil {
		return topics, nil
	}
	var page struct {
		Results []models.Topic `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return page.Results, nil
}
