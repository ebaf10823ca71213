package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabflow/internal/gateway"
	"vocabflow/internal/validation"
)

func TestNotebookService(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	svc := NewNotebookService()

	_, err := b.AddToNotebook(ctx, 70, "")
	require.NoError(t, err)

	entry, err := svc.UpdateNote(ctx, b, 1, "test note")
	require.NoError(t, err)
	assert.Equal(t, "test note", entry.Note)

	_, err = svc.UpdateNote(ctx, b, 1, strings.Repeat("x", validation.MaxNoteLength+1))
	var verr validation.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UpdateNote(ctx, b, 0, "x")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = svc.UpdateNote(ctx, b, 42, "x")
	assert.ErrorIs(t, err, ErrEntryNotFound, "a backend 404 means the entry is gone")

	entries, err := svc.List(ctx, b)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, svc.Delete(ctx, b, 1))
	entries, err = svc.List(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, svc.Delete(ctx, b, -1), ErrEntryNotFound)
}

func TestNotebookServiceKeepsOtherBackendErrors(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.deleteErr = &gateway.APIError{Op: "delete notebook entry", Status: 500}

	err := NewNotebookService().Delete(ctx, b, 3)
	var apiErr *gateway.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.NotErrorIs(t, err, ErrEntryNotFound)

	b.deleteErr = &gateway.APIError{Op: "delete notebook entry", Status: 404}
	assert.ErrorIs(t, NewNotebookService().Delete(ctx, b, 3), ErrEntryNotFound)
}
