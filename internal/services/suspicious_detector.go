package services

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/models"
)

// SuspiciousActivityDetector flags engagement signals worth a human review.
// Its output never affects a completion decision.
type SuspiciousActivityDetector struct {
	policy CompletionPolicy
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewSuspiciousActivityDetector(policy CompletionPolicy) *SuspiciousActivityDetector {
	return &SuspiciousActivityDetector{
		policy: policy,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Detect evaluates every rule against one event snapshot. All matching rules
// produce an entry.
func (d *SuspiciousActivityDetector) Detect(dc models.DetectionContext) []models.SuspiciousActivity {
	var found []models.SuspiciousActivity

	if dc.IsHidden != nil && *dc.IsHidden {
		found = append(found, d.activity(dc, models.ActivityTabHidden,
			"Document was hidden while learning", nil))
	}

	if dc.IsMuted != nil && *dc.IsMuted {
		found = append(found, d.activity(dc, models.ActivityVideoMuted,
			"Video was muted during playback", nil))
	}

	if dc.PlaybackSpeed != nil && *dc.PlaybackSpeed > d.policy.SuspiciousSpeed {
		found = append(found, d.activity(dc, models.ActivityVideoFastForward,
			fmt.Sprintf("Playback speed %.2fx exceeds the %.2fx limit", *dc.PlaybackSpeed, d.policy.SuspiciousSpeed),
			map[string]any{
				"playback_speed": *dc.PlaybackSpeed,
				"threshold":      d.policy.SuspiciousSpeed,
			}))
	}

	if dc.TimeGapSeconds != nil && *dc.TimeGapSeconds > d.policy.SuspiciousGapSeconds {
		found = append(found, d.activity(dc, models.ActivityTimeGapAnomaly,
			fmt.Sprintf("Inactivity gap of %.0f seconds exceeds the %.0f second limit", *dc.TimeGapSeconds, d.policy.SuspiciousGapSeconds),
			map[string]any{
				"time_gap_seconds": *dc.TimeGapSeconds,
				"threshold":        d.policy.SuspiciousGapSeconds,
			}))
	}

	return found
}

func (d *SuspiciousActivityDetector) activity(dc models.DetectionContext, kind models.ActivityType, reason string, extra map[string]any) models.SuspiciousActivity {
	createdAt := d.now().UTC()

	observedAt := dc.Timestamp
	if observedAt.IsZero() {
		observedAt = createdAt
	}

	evidence := make(map[string]any, len(dc.Evidence)+len(extra)+1)
	maps.Copy(evidence, dc.Evidence)
	maps.Copy(evidence, extra)
	evidence["timestamp"] = observedAt.UTC().Format(time.RFC3339Nano)

	var fileID *uuid.UUID
	if dc.FileID != nil {
		id := *dc.FileID
		fileID = &id
	}

	return models.SuspiciousActivity{
		ID:           d.newID(),
		UserID:       dc.UserID,
		FileID:       fileID,
		ActivityType: kind,
		Reason:       reason,
		Evidence:     evidence,
		CreatedAt:    createdAt,
	}
}
