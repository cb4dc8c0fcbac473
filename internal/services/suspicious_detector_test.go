package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func fixedDetector() *SuspiciousActivityDetector {
	d := NewSuspiciousActivityDetector(DefaultCompletionPolicy())
	d.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDetect_NoSignals(t *testing.T) {
	d := fixedDetector()
	if got := d.Detect(models.DetectionContext{UserID: uuid.New()}); len(got) != 0 {
		t.Fatalf("expected no activities, got %+v", got)
	}

	got := d.Detect(models.DetectionContext{
		UserID:        uuid.New(),
		IsHidden:      boolPtr(false),
		IsMuted:       boolPtr(false),
		PlaybackSpeed: f64(1.0),
	})
	if len(got) != 0 {
		t.Fatalf("expected no activities for benign signals, got %+v", got)
	}
}

func TestDetect_MutedAndFast(t *testing.T) {
	d := fixedDetector()
	userID := uuid.New()
	fileID := uuid.New()

	got := d.Detect(models.DetectionContext{
		UserID:        userID,
		FileID:        &fileID,
		IsMuted:       boolPtr(true),
		PlaybackSpeed: f64(2.0),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(got))
	}
	if got[0].ActivityType != models.ActivityVideoMuted || got[1].ActivityType != models.ActivityVideoFastForward {
		t.Fatalf("unexpected activity types: %s, %s", got[0].ActivityType, got[1].ActivityType)
	}
	if got[0].ID == got[1].ID {
		t.Fatalf("expected distinct ids")
	}
	for _, a := range got {
		if a.UserID != userID || a.FileID == nil || *a.FileID != fileID {
			t.Errorf("activity not attributed to caller: %+v", a)
		}
		if a.Reason == "" {
			t.Errorf("expected a reason for %s", a.ActivityType)
		}
	}
}

func TestDetect_ThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		name string
		dc   models.DetectionContext
		want int
	}{
		{"speed at limit", models.DetectionContext{PlaybackSpeed: f64(1.5)}, 0},
		{"speed above limit", models.DetectionContext{PlaybackSpeed: f64(1.51)}, 1},
		{"gap at limit", models.DetectionContext{TimeGapSeconds: f64(600)}, 0},
		{"gap above limit", models.DetectionContext{TimeGapSeconds: f64(600.5)}, 1},
	}

	d := fixedDetector()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.Detect(tc.dc); len(got) != tc.want {
				t.Errorf("expected %d activities, got %d", tc.want, len(got))
			}
		})
	}
}

func TestDetect_AllRules(t *testing.T) {
	got := fixedDetector().Detect(models.DetectionContext{
		UserID:         uuid.New(),
		IsHidden:       boolPtr(true),
		IsMuted:        boolPtr(true),
		PlaybackSpeed:  f64(3),
		TimeGapSeconds: f64(3600),
	})

	want := []models.ActivityType{
		models.ActivityTabHidden,
		models.ActivityVideoMuted,
		models.ActivityVideoFastForward,
		models.ActivityTimeGapAnomaly,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d activities, got %d", len(want), len(got))
	}
	for i, kind := range want {
		if got[i].ActivityType != kind {
			t.Errorf("activity %d: expected %s, got %s", i, kind, got[i].ActivityType)
		}
	}
}

func TestDetect_Evidence(t *testing.T) {
	observed := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
	callerEvidence := map[string]any{"client": "web", "tab_count": 4}

	got := fixedDetector().Detect(models.DetectionContext{
		UserID:         uuid.New(),
		TimeGapSeconds: f64(900),
		Evidence:       callerEvidence,
		Timestamp:      observed,
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(got))
	}

	ev := got[0].Evidence
	if ev["client"] != "web" || ev["tab_count"] != 4 {
		t.Errorf("caller evidence not preserved: %v", ev)
	}
	if ev["time_gap_seconds"] != 900.0 || ev["threshold"] != 600.0 {
		t.Errorf("rule evidence missing: %v", ev)
	}
	if ev["timestamp"] != observed.Format(time.RFC3339Nano) {
		t.Errorf("expected observation timestamp, got %v", ev["timestamp"])
	}
	if _, ok := callerEvidence["timestamp"]; ok {
		t.Errorf("caller evidence map was mutated")
	}
	if !got[0].CreatedAt.Equal(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created_at %v", got[0].CreatedAt)
	}
}
