package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeRepo) FetchUnpublished(_, _ int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	failFor  map[string]error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if err, ok := p.failFor[msg.Attributes["aggregate_id"]]; ok {
		return fakeResult{err: err}
	}
	return fakeResult{}
}

func outboxEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{"hello": "world"})
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestDrainOnce_PublishesAndMarks(t *testing.T) {
	t.Parallel()

	first := outboxEvent(enums.EventOrderCreated)
	second := outboxEvent(enums.EventCartConverted)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	published, err := svc.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if published != 2 {
		t.Fatalf("published = %d, want 2", published)
	}
	if len(repo.published) != 2 || len(repo.failed) != 0 {
		t.Fatalf("marks: published=%d failed=%d", len(repo.published), len(repo.failed))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventOrderCreated) {
		t.Fatalf("event_type attribute = %q", got)
	}
}

func TestDrainOnce_FailureMarksAndContinues(t *testing.T) {
	t.Parallel()

	bad := outboxEvent(enums.EventOrderCreated)
	good := outboxEvent(enums.EventOrderStateChanged)
	repo := &fakeRepo{events: []models.OutboxEvent{bad, good}}
	pub := &fakePublisher{failFor: map[string]error{
		bad.AggregateID.String(): errors.New("broker unavailable"),
	}}
	svc := newTestService(t, repo, pub)

	published, err := svc.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if published != 1 {
		t.Fatalf("published = %d, want 1", published)
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("failed marks = %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("published marks = %v", repo.published)
	}
}

func TestDrainOnce_FetchErrorSurfaces(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{fetchErr: errors.New("connection reset")}
	svc := newTestService(t, repo, &fakePublisher{})

	if _, err := svc.DrainOnce(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}
