package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabflow/internal/models"
)

type fakeDigest struct {
	enabled bool
	to      string
	name    string
	stats   models.Stats
}

func (f *fakeDigest) IsEnabled() bool { return f.enabled }

func (f *fakeDigest) SendStatsDigest(ctx context.Context, toEmail, toName string, stats models.Stats) error {
	f.to, f.name, f.stats = toEmail, toName, stats
	return nil
}

func TestDashboard(t *testing.T) {
	b := newFakeBackend()
	d, err := NewStatsService(nil).Dashboard(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "alice", d.Profile.Username)
	assert.Equal(t, 3, d.Stats.TotalWords)

	b.statsErr = errBackendDown
	_, err = NewStatsService(nil).Dashboard(context.Background(), b)
	assert.ErrorIs(t, err, errBackendDown)
}

func TestTopics(t *testing.T) {
	topics, err := NewStatsService(nil).Topics(context.Background(), newFakeBackend())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Fruit", topics[0].Title)
}

func TestSendDigest(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()

	assert.ErrorIs(t, NewStatsService(nil).SendDigest(ctx, b), ErrDigestUnavailable)
	assert.ErrorIs(t, NewStatsService(&fakeDigest{}).SendDigest(ctx, b), ErrDigestUnavailable)

	digest := &fakeDigest{enabled: true}
	require.NoError(t, NewStatsService(digest).SendDigest(ctx, b))
	assert.Equal(t, "alice@example.com", digest.to)
	assert.Equal(t, "alice", digest.name)
	assert.Equal(t, 3, digest.stats.TotalWords)

	b.profile = &models.Profile{Username: "bob"}
	assert.Error(t, NewStatsService(digest).SendDigest(ctx, b), "a profile without email cannot receive digests")
}
