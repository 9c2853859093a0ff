package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
)

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// gcpPublisher adapts the concrete Pub/Sub publisher to the local interface
// so tests can run without a broker.
type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository outboxRepository
	Publisher  publisher
}

// Service drains the outbox table into the domain events topic. Rows stay
// unpublished until the broker acks, so a crash between publish and mark
// yields at-least-once delivery.
type Service struct {
	logg           *logger.Logger
	repo           outboxRepository
	pub            publisher
	batchSize      int
	pollInterval   time.Duration
	maxAttempts    int
	publishTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batchSize := defaultBatchSize
	pollMs := defaultPollMs
	maxAttempts := defaultMaxAttempts
	if params.Config != nil {
		if params.Config.Outbox.BatchSize > 0 {
			batchSize = params.Config.Outbox.BatchSize
		}
		if params.Config.Outbox.PollIntervalMS > 0 {
			pollMs = params.Config.Outbox.PollIntervalMS
		}
		if params.Config.Outbox.MaxAttempts > 0 {
			maxAttempts = params.Config.Outbox.MaxAttempts
		}
	}

	return &Service{
		logg:           params.Logger,
		repo:           params.Repository,
		pub:            params.Publisher,
		batchSize:      batchSize,
		pollInterval:   time.Duration(pollMs) * time.Millisecond,
		maxAttempts:    maxAttempts,
		publishTimeout: defaultPublishTimeout,
	}, nil
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.DrainOnce(ctx); err != nil {
				s.logError(ctx, "outbox drain failed", err)
			}
		}
	}
}

// DrainOnce publishes one batch and reports how many events went out.
func (s *Service) DrainOnce(ctx context.Context) (int, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetching outbox batch: %w", err)
	}

	published := 0
	for _, event := range events {
		if err := s.publishEvent(ctx, event); err != nil {
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				s.logError(ctx, "marking outbox event failed", markErr)
			}
			continue
		}
		if err := s.repo.MarkPublished(event.ID); err != nil {
			// The broker has the message; the row will be retried and the
			// consumer dedupes on event id.
			s.logError(ctx, "marking outbox event published", err)
			continue
		}
		published++
	}

	if published > 0 && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "published", published)
		s.logg.Info(logCtx, "outbox batch published")
	}
	return published, nil
}

func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	result := s.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
