package service

import (
	"context"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/session"
)

// Backend is the vocabulary API as the services use it. *gateway.Client
// implements it.
type Backend interface {
	session.Gateway

	Login(ctx context.Context, username, password string) (models.Credentials, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
	Credentials() models.Credentials

	Stats(ctx context.Context) (*models.Stats, error)
	Topics(ctx context.Context) ([]models.Topic, error)

	ListNotebook(ctx context.Context) ([]models.NotebookEntry, error)
	AddToNotebook(ctx context.Context, vocabularyID int64, note string) (*models.NotebookEntry, error)
	UpdateNote(ctx context.Context, entryID int64, note string) (*models.NotebookEntry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
}

var _ Backend = (*gateway.Client)(nil)

// BackendFactory builds a backend client carrying creds. Zero credentials
// give an anonymous client that can only log in.
type BackendFactory func(creds models.Credentials) (Backend, error)

// NewBackendFactory returns a factory for gateway clients against baseURL
func NewBackendFactory(baseURL string, opts ...gateway.Option) BackendFactory {
	return func(creds models.Credentials) (Backend, error) {
		return gateway.NewWithCredentials(baseURL, creds, opts...)
	}
}
