package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"lms-backend/internal/models"
)

type activityStore interface {
	Create(ctx context.Context, a *models.SuspiciousActivity) error
}

type activitySink interface {
	PublishActivity(ctx context.Context, a models.SuspiciousActivity) error
}

type updatePublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// ActivityRecorder hands detected activities to every configured destination.
// Failures are logged and never fail the caller's request.
type ActivityRecorder struct {
	store   activityStore
	updates updatePublisher
	sinks   []activitySink
}

func NewActivityRecorder(store activityStore, updates updatePublisher, sinks ...activitySink) *ActivityRecorder {
	return &ActivityRecorder{store: store, updates: updates, sinks: sinks}
}

// Record returns how many activities were persisted.
func (r *ActivityRecorder) Record(ctx context.Context, activities []models.SuspiciousActivity) int {
	stored := 0
	for i := range activities {
		a := activities[i]

		if err := r.store.Create(ctx, &a); err != nil {
			log.Printf("suspicious activity: failed to store %s for user %s: %v", a.ActivityType, a.UserID, err)
		} else {
			stored++
		}

		if r.updates != nil {
			r.updates.PublishUpdate(ctx, a.UserID, models.WSMessage{Type: "suspicious_activity", Payload: a})
		}

		for _, sink := range r.sinks {
			if err := sink.PublishActivity(ctx, a); err != nil {
				log.Printf("suspicious activity: %v", err)
			}
		}
	}
	return stored
}

// KafkaActivitySink streams activities to a review topic keyed by user.
type KafkaActivitySink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaActivitySink(client *kgo.Client, topic string) *KafkaActivitySink {
	return &KafkaActivitySink{client: client, topic: topic}
}

func (s *KafkaActivitySink) PublishActivity(ctx context.Context, a models.SuspiciousActivity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("kafka publish: marshal activity %s: %w", a.ID, err)
	}

	record := &kgo.Record{
		Topic:     s.topic,
		Key:       []byte(a.UserID.String()),
		Value:     data,
		Timestamp: time.Now(),
	}
	// Delivery outlives the ingest request; failures surface in the promise.
	s.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			log.Printf("suspicious activity: kafka publish to %s failed for %s: %v", r.Topic, a.ID, err)
		}
	})
	return nil
}
