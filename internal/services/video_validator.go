package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lms-backend/internal/models"
)

type videoEventSource interface {
	VideoEvents(ctx context.Context, userID, videoID uuid.UUID) ([]models.VideoEvent, error)
}

type videoMetadataSource interface {
	VideoMetadata(ctx context.Context, videoID uuid.UUID) (*models.SubjectMetadata, error)
}

// VideoValidator reconstructs watched time from playback events and decides
// whether a video was meaningfully watched.
type VideoValidator struct {
	events          videoEventSource
	metadata        videoMetadataSource
	policy          CompletionPolicy
	fallbackSeconds float64
	concurrency     int
}

func NewVideoValidator(events videoEventSource, metadata videoMetadataSource, policy CompletionPolicy, fallbackSeconds float64, concurrency int) *VideoValidator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &VideoValidator{
		events:          events,
		metadata:        metadata,
		policy:          policy,
		fallbackSeconds: fallbackSeconds,
		concurrency:     concurrency,
	}
}

func (v *VideoValidator) Validate(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoValidationResult, error) {
	meta, err := v.metadata.VideoMetadata(ctx, videoID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &ValidationFailedError{SubjectKind: models.SubjectVideo, Err: fmt.Errorf("load metadata: %w", err)}
	}
	if meta == nil {
		return nil, &NotFoundError{Message: "Video not found"}
	}

	total := v.fallbackSeconds
	if meta.TotalDurationSeconds != nil && *meta.TotalDurationSeconds > 0 {
		total = *meta.TotalDurationSeconds
	}

	events, err := v.events.VideoEvents(ctx, userID, videoID)
	if err != nil {
		return nil, &ValidationFailedError{SubjectKind: models.SubjectVideo, Err: fmt.Errorf("load events: %w", err)}
	}

	result := EvaluateVideo(events, total, v.policy)
	return &result, nil
}

// ValidateMultiple validates each video independently. Videos whose validation
// fails are logged and left out of the returned map.
func (v *VideoValidator) ValidateMultiple(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) map[uuid.UUID]models.VideoValidationResult {
	results := make(map[uuid.UUID]models.VideoValidationResult, len(videoIDs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for _, id := range videoIDs {
		id := id
		g.Go(func() error {
			res, err := v.Validate(ctx, userID, id)
			if err != nil {
				log.Printf("video validation: skipping video %s for user %s: %v", id, userID, err)
				return nil
			}
			mu.Lock()
			results[id] = *res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results
}

// ValidateAll reports whether every listed video was validated and passed.
func (v *VideoValidator) ValidateAll(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) bool {
	return AllValid(videoIDs, v.ValidateMultiple(ctx, userID, videoIDs))
}

// AllValid reports whether results holds a passing entry for every id. An
// empty id list is vacuously valid.
func AllValid(videoIDs []uuid.UUID, results map[uuid.UUID]models.VideoValidationResult) bool {
	for _, id := range videoIDs {
		res, ok := results[id]
		if !ok || !res.IsValid {
			return false
		}
	}
	return true
}

// EvaluateVideo applies the watching rules to an event history.
func EvaluateVideo(events []models.VideoEvent, totalSeconds float64, policy CompletionPolicy) models.VideoValidationResult {
	events = sortedVideoEvents(events)

	result := models.VideoValidationResult{
		WatchedSeconds: CalculateWatchedSeconds(events, totalSeconds),
		TotalSeconds:   totalSeconds,
		PauseCount:     countPauses(events),
		MaxSpeed:       maxPlaybackSpeed(events),
	}
	if totalSeconds > 0 {
		result.WatchedRatio = result.WatchedSeconds / totalSeconds
	}

	result.MeetsWatchRequirement = result.WatchedRatio >= policy.MinWatchedRatio
	result.MeetsPauseRequirement = result.PauseCount < policy.MaxPauses
	result.MeetsSpeedRequirement = result.MaxSpeed <= policy.MaxVideoSpeed
	result.IsValid = result.MeetsWatchRequirement &&
		result.MeetsPauseRequirement &&
		result.MeetsSpeedRequirement
	return result
}

// CalculateWatchedSeconds folds playback events into watched time. A play
// opens a segment at its position; pause and finish close it; seek and
// timeupdate credit the open segment and then move the cursor, opening one if
// none was open. Finish also credits the remainder of the video. A segment
// still open after the last event runs to that event's position. The total is
// clamped to [0, totalSeconds].
func CalculateWatchedSeconds(events []models.VideoEvent, totalSeconds float64) float64 {
	var (
		watched float64
		cursor  float64
		open    bool
	)

	credit := func(t float64) {
		if open && t > cursor {
			watched += t - cursor
		}
	}

	for _, e := range events {
		switch a := e.Action.(type) {
		case models.VideoPlay:
			cursor, open = a.CurrentTime, true
		case models.VideoPause:
			credit(a.CurrentTime)
			open = false
		case models.VideoSeek:
			credit(a.CurrentTime)
			cursor, open = a.CurrentTime, true
		case models.VideoTimeUpdate:
			credit(a.CurrentTime)
			cursor, open = a.CurrentTime, true
		case models.VideoFinish:
			credit(a.CurrentTime)
			open = false
			watched += totalSeconds - a.CurrentTime
		case models.VideoSpeedChanged:
		}
	}

	if open && len(events) > 0 {
		credit(events[len(events)-1].Position)
	}

	if watched < 0 {
		return 0
	}
	if watched > totalSeconds {
		return max(totalSeconds, 0)
	}
	return watched
}

func countPauses(events []models.VideoEvent) uint32 {
	var n uint32
	for _, e := range events {
		if _, ok := e.Action.(models.VideoPause); ok {
			n++
		}
	}
	return n
}

func maxPlaybackSpeed(events []models.VideoEvent) float64 {
	speed := 1.0
	for _, e := range events {
		changed, ok := e.Action.(models.VideoSpeedChanged)
		if !ok || changed.PlaybackSpeed == nil {
			continue
		}
		speed = max(speed, *changed.PlaybackSpeed)
	}
	return speed
}
