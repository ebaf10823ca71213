package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vocabflow/internal/models"
)

// ListNotebook returns the user's saved words
func (c *Client) ListNotebook(ctx context.Context) ([]models.NotebookEntry, error) {
	var entries []models.NotebookEntry
	if err := c.do(ctx, "list notebook", http.MethodGet, "api/notebook/", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddToNotebook saves a word, optionally with a note
func (c *Client) AddToNotebook(ctx context.Context, vocabularyID int64, note string) (*models.NotebookEntry, error) {
	body := map[string]any{"vocabulary_id": vocabularyID}
	if note != "" {
		body["note"] = note
	}
	var entry models.NotebookEntry
	if err := c.do(ctx, "add to notebook", http.MethodPost, "api/notebook/", nil, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateNote replaces the note of an entry
func (c *Client) UpdateNote(ctx context.Context, entryID int64, note string) (*models.NotebookEntry, error) {
	var entry models.NotebookEntry
	path := fmt.Sprintf("api/notebook/%d/", entryID)
	if err := c.do(ctx, "update note", http.MethodPatch, path, nil, map[string]any{"note": note}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes a word from the notebook
func (c *Client) DeleteEntry(ctx context.Context, entryID int64) error {
	path := fmt.Sprintf("api/notebook/%d/", entryID)
	return c.do(ctx, "delete notebook entry", http.MethodDelete, path, nil, nil, nil)
}
