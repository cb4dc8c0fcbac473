package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"lms-backend/internal/models"
)

type stubActivityStore struct {
	created []models.SuspiciousActivity
	failOn  models.ActivityType
}

func (s *stubActivityStore) Create(ctx context.Context, a *models.SuspiciousActivity) error {
	if a.ActivityType == s.failOn {
		return errors.New("insert failed")
	}
	s.created = append(s.created, *a)
	return nil
}

type stubUpdates struct {
	messages []models.WSMessage
}

func (u *stubUpdates) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	u.messages = append(u.messages, msg)
}

type stubSink struct {
	published []models.SuspiciousActivity
	err       error
}

func (s *stubSink) PublishActivity(ctx context.Context, a models.SuspiciousActivity) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, a)
	return nil
}

func TestActivityRecorder_Record(t *testing.T) {
	store := &stubActivityStore{}
	updates := &stubUpdates{}
	sink := &stubSink{}
	rec := NewActivityRecorder(store, updates, sink)

	userID := uuid.New()
	activities := []models.SuspiciousActivity{
		{ID: uuid.New(), UserID: userID, ActivityType: models.ActivityVideoMuted},
		{ID: uuid.New(), UserID: userID, ActivityType: models.ActivityVideoFastForward},
	}

	if n := rec.Record(context.Background(), activities); n != 2 {
		t.Fatalf("expected 2 stored, got %d", n)
	}
	if len(store.created) != 2 || len(sink.published) != 2 {
		t.Fatalf("expected every activity stored and published, got %d/%d", len(store.created), len(sink.published))
	}
	if len(updates.messages) != 2 || updates.messages[0].Type != "suspicious_activity" {
		t.Fatalf("unexpected websocket updates: %+v", updates.messages)
	}
}

func TestActivityRecorder_FailuresDoNotStopDelivery(t *testing.T) {
	store := &stubActivityStore{failOn: models.ActivityTabHidden}
	failing := &stubSink{err: errors.New("broker unavailable")}
	healthy := &stubSink{}
	rec := NewActivityRecorder(store, nil, failing, healthy)

	activities := []models.SuspiciousActivity{
		{ID: uuid.New(), ActivityType: models.ActivityTabHidden},
		{ID: uuid.New(), ActivityType: models.ActivityTimeGapAnomaly},
	}

	if n := rec.Record(context.Background(), activities); n != 1 {
		t.Fatalf("expected 1 stored, got %d", n)
	}
	if len(healthy.published) != 2 {
		t.Fatalf("expected healthy sink to receive both activities, got %d", len(healthy.published))
	}
}

func TestKafkaActivitySink_DoesNotWaitForDelivery(t *testing.T) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers("127.0.0.1:1"),
		kgo.RecordDeliveryTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	t.Cleanup(client.Close)

	sink := NewKafkaActivitySink(client, "suspicious-activities")
	a := models.SuspiciousActivity{ID: uuid.New(), UserID: uuid.New(), ActivityType: models.ActivityTabHidden}

	start := time.Now()
	if err := sink.PublishActivity(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish blocked for %v with an unreachable broker", elapsed)
	}
}
