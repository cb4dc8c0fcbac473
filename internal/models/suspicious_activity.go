package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityTabHidden        ActivityType = "tab_hidden"
	ActivityVideoMuted       ActivityType = "video_muted"
	ActivityVideoFastForward ActivityType = "video_fast_forward"
	ActivityTimeGapAnomaly   ActivityType = "time_gap_anomaly"
)

type SuspiciousActivity struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	FileID       *uuid.UUID     `json:"file_id,omitempty"`
	ActivityType ActivityType   `json:"activity_type"`
	Reason       string         `json:"reason"`
	Evidence     map[string]any `json:"evidence"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DetectionContext is a single event snapshot handed to the detector.
// Unset fields never trigger a rule.
type DetectionContext struct {
	UserID         uuid.UUID
	FileID         *uuid.UUID
	IsHidden       *bool
	IsMuted        *bool
	PlaybackSpeed  *float64
	TimeGapSeconds *float64
	Evidence       map[string]any
	Timestamp      time.Time
}
