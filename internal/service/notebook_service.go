package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/validation"
)

var ErrEntryNotFound = errors.New("notebook entry not found")

// NotebookService manages the user's saved words
type NotebookService struct{}

// NewNotebookService creates a new notebook service
func NewNotebookService() *NotebookService {
	return &NotebookService{}
}

// List returns every notebook entry
func (s *NotebookService) List(ctx context.Context, b Backend) ([]models.NotebookEntry, error) {
	entries, err := b.ListNotebook(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebook: %w", err)
	}
	return entries, nil
}

// UpdateNote replaces the note on an entry. A blank note clears it.
func (s *NotebookService) UpdateNote(ctx context.Context, b Backend, entryID int64, note string) (*models.NotebookEntry, error) {
	if entryID <= 0 {
		return nil, ErrEntryNotFound
	}
	note, err := validation.NormalizeNote(note)
	if err != nil {
		return nil, err
	}
	entry, err := b.UpdateNote(ctx, entryID, note)
	if err != nil {
		return nil, notebookError("failed to update note", err)
	}
	return entry, nil
}

// Delete removes an entry from the notebook
func (s *NotebookService) Delete(ctx context.Context, b Backend, entryID int64) error {
	if entryID <= 0 {
		return ErrEntryNotFound
	}
	if err := b.DeleteEntry(ctx, entryID); err != nil {
		return notebookError("failed to delete notebook entry", err)
	}
	return nil
}

// notebookError maps a backend 404 to ErrEntryNotFound
func notebookError(msg string, err error) error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%s: %w (%v)", msg, ErrEntryNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
