package services

import (
	"slices"
	"time"

	"lms-backend/internal/models"
)

// CompletionPolicy holds the thresholds used by the validators and the detector.
type CompletionPolicy struct {
	MinReadingDuration time.Duration

	MinWatchedRatio float64
	MaxPauses       uint32 // exclusive
	MaxVideoSpeed   float64

	SuspiciousSpeed      float64 // strict
	SuspiciousGapSeconds float64 // strict
}

func DefaultCompletionPolicy() CompletionPolicy {
	return CompletionPolicy{
		MinReadingDuration:   5 * time.Minute,
		MinWatchedRatio:      0.80,
		MaxPauses:            3,
		MaxVideoSpeed:        1.5,
		SuspiciousSpeed:      1.5,
		SuspiciousGapSeconds: 600,
	}
}

// sortedPDFEvents returns a copy of events in non-decreasing timestamp order.
// Events sharing a timestamp keep the order the store returned them in.
func sortedPDFEvents(events []models.PDFEvent) []models.PDFEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b models.PDFEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

func sortedVideoEvents(events []models.VideoEvent) []models.VideoEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b models.VideoEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
