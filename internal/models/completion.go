package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	SubjectPDF   = "pdf"
	SubjectVideo = "video"
)

// Subject is a content item learners are validated against.
type Subject struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"` // "pdf" | "video"
	Title           string    `json:"title"`
	FilePath        *string   `json:"file_path"`
	SourceURL       *string   `json:"source_url"`
	TotalPages      *int      `json:"total_pages"`
	DurationSeconds *float64  `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type SubjectMetadata struct {
	TotalPages           *int     `json:"total_pages,omitempty"`
	TotalDurationSeconds *float64 `json:"total_duration_seconds,omitempty"`
}

type PDFValidationResult struct {
	IsOpened        bool   `json:"is_opened"`
	DurationMinutes uint32 `json:"duration_minutes"`
	ReachedLastPage bool   `json:"reached_last_page"`
	IsValid         bool   `json:"is_valid"`
}

type VideoValidationResult struct {
	WatchedSeconds        float64 `json:"watched_seconds"`
	TotalSeconds          float64 `json:"total_seconds"`
	PauseCount            uint32  `json:"pause_count"`
	MaxSpeed              float64 `json:"max_speed"`
	IsValid               bool    `json:"is_valid"`
	WatchedRatio          float64 `json:"watched_ratio"`
	MeetsWatchRequirement bool    `json:"meets_watch_requirement"`
	MeetsPauseRequirement bool    `json:"meets_pause_requirement"`
	MeetsSpeedRequirement bool    `json:"meets_speed_requirement"`
}

// Completion is the persisted outcome of an asynchronous validation job.
type Completion struct {
	UserID      uuid.UUID       `json:"user_id"`
	SubjectID   uuid.UUID       `json:"subject_id"`
	SubjectKind string          `json:"subject_kind"`
	IsValid     bool            `json:"is_valid"`
	ResultJSON  json.RawMessage `json:"result"`
	ValidatedAt time.Time       `json:"validated_at"`
}

type ValidateVideosRequest struct {
	VideoIDs []uuid.UUID `json:"video_ids"`
}
