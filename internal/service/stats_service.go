package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vocabflow/internal/models"
	"vocabflow/internal/validation"
)

var ErrDigestUnavailable = errors.New("email digests are not configured")

// Dashboard is everything the stats page shows
type Dashboard struct {
	Profile *models.Profile
	Stats   *models.Stats
}

// DigestSender delivers the stats digest. *EmailService implements it.
type DigestSender interface {
	IsEnabled() bool
	SendStatsDigest(ctx context.Context, toEmail, toName string, stats models.Stats) error
}

// StatsService reads progress and topics from the backend
type StatsService struct {
	digest DigestSender
}

// NewStatsService creates a new stats service. digest may be nil.
func NewStatsService(digest DigestSender) *StatsService {
	return &StatsService{digest: digest}
}

// Dashboard fetches the profile and stats concurrently
func (s *StatsService) Dashboard(ctx context.Context, b Backend) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.Profile(gctx)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		d.Profile = p
		return nil
	})
	g.Go(func() error {
		st, err := b.Stats(gctx)
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}
		d.Stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Topics returns the topic list
func (s *StatsService) Topics(ctx context.Context, b Backend) ([]models.Topic, error) {
	topics, err := b.Topics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	return topics, nil
}

// SendDigest emails the current stats to the user's profile address
func (s *StatsService) SendDigest(ctx context.Context, b Backend) error {
	if s.digest == nil || !s.digest.IsEnabled() {
		return ErrDigestUnavailable
	}
	d, err := s.Dashboard(ctx, b)
	if err != nil {
		return err
	}
	if err := validation.ValidateEmail(d.Profile.Email); err != nil {
		return err
	}
	return s.digest.SendStatsDigest(ctx, d.Profile.Email, d.Profile.Username, *d.Stats)
}
