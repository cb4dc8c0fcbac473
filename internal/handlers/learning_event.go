package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

type eventLog interface {
	AppendPDFEvent(ctx context.Context, e *models.PDFEvent) error
	AppendVideoEvent(ctx context.Context, e *models.VideoEvent) error
	LastEventAt(ctx context.Context, userID, fileID uuid.UUID) (*time.Time, error)
}

type activityDetector interface {
	Detect(dc models.DetectionContext) []models.SuspiciousActivity
}

type activityRecorder interface {
	Record(ctx context.Context, activities []models.SuspiciousActivity) int
}

// LearningEventHandler appends client events to the log and screens each one
// for suspicious engagement signals.
type LearningEventHandler struct {
	events   eventLog
	detector activityDetector
	recorder activityRecorder
	now      func() time.Time
}

func NewLearningEventHandler(events eventLog, detector activityDetector, recorder activityRecorder) *LearningEventHandler {
	return &LearningEventHandler{
		events:   events,
		detector: detector,
		recorder: recorder,
		now:      time.Now,
	}
}

func (h *LearningEventHandler) RecordPDF(w http.ResponseWriter, r *http.Request) {
	var req models.RecordPDFEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if req.FileID == uuid.Nil {
		fields["file_id"] = "file_id is required"
	}
	if req.PageNum != nil && *req.PageNum < 1 {
		fields["page_num"] = "page_num must be at least 1"
	}
	action, err := models.ParsePDFAction(req.Action, req.PageNum)
	if err != nil {
		fields["action"] = err.Error()
	}
	if len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	userID := middleware.GetUserID(r.Context())
	ts := h.eventTime(req.Timestamp)
	gap := h.timeGap(r.Context(), userID, req.FileID, ts)

	event := models.PDFEvent{
		LearningEvent: models.LearningEvent{
			UserID:    userID,
			FileID:    req.FileID,
			Timestamp: ts,
			Aux:       models.Auxiliary{IsHidden: req.IsHidden, Evidence: req.Evidence},
		},
		Action: action,
	}
	if page, ok := event.PageNum(); ok {
		event.Position = float64(page)
	}

	if err := h.events.AppendPDFEvent(r.Context(), &event); err != nil {
		log.Printf("failed to append pdf event for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record event", r))
		return
	}

	fileID := req.FileID
	activities := h.screen(r.Context(), models.DetectionContext{
		UserID:         userID,
		FileID:         &fileID,
		IsHidden:       req.IsHidden,
		TimeGapSeconds: gap,
		Evidence:       req.Evidence,
		Timestamp:      ts,
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event_id":              event.ID,
		"suspicious_activities": activities,
	})
}

func (h *LearningEventHandler) RecordVideo(w http.ResponseWriter, r *http.Request) {
	var req models.RecordVideoEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if req.FileID == uuid.Nil {
		fields["file_id"] = "file_id is required"
	}
	if req.CurrentTime < 0 {
		fields["current_time"] = "current_time must not be negative"
	}
	if req.PlaybackSpeed != nil && *req.PlaybackSpeed <= 0 {
		fields["playback_speed"] = "playback_speed must be positive"
	}
	action, err := models.ParseVideoAction(req.Action, req.CurrentTime, req.PlaybackSpeed)
	if err != nil {
		fields["action"] = err.Error()
	}
	if len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	userID := middleware.GetUserID(r.Context())
	ts := h.eventTime(req.Timestamp)
	gap := h.timeGap(r.Context(), userID, req.FileID, ts)

	event := models.VideoEvent{
		LearningEvent: models.LearningEvent{
			UserID:    userID,
			FileID:    req.FileID,
			Timestamp: ts,
			Position:  req.CurrentTime,
			Aux: models.Auxiliary{
				PlaybackSpeed: req.PlaybackSpeed,
				IsHidden:      req.IsHidden,
				IsMuted:       req.IsMuted,
				Evidence:      req.Evidence,
			},
		},
		Action: action,
	}

	if err := h.events.AppendVideoEvent(r.Context(), &event); err != nil {
		log.Printf("failed to append video event for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record event", r))
		return
	}

	fileID := req.FileID
	activities := h.screen(r.Context(), models.DetectionContext{
		UserID:         userID,
		FileID:         &fileID,
		IsHidden:       req.IsHidden,
		IsMuted:        req.IsMuted,
		PlaybackSpeed:  req.PlaybackSpeed,
		TimeGapSeconds: gap,
		Evidence:       req.Evidence,
		Timestamp:      ts,
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event_id":              event.ID,
		"suspicious_activities": activities,
	})
}

func (h *LearningEventHandler) eventTime(reported *time.Time) time.Time {
	if reported != nil && !reported.IsZero() {
		return reported.UTC()
	}
	return h.now().UTC()
}

// timeGap is the number of seconds since the previous event on the same file.
// It is nil for the first event or when events arrive out of order.
func (h *LearningEventHandler) timeGap(ctx context.Context, userID, fileID uuid.UUID, at time.Time) *float64 {
	last, err := h.events.LastEventAt(ctx, userID, fileID)
	if err != nil {
		log.Printf("failed to load last event time for user %s file %s: %v", userID, fileID, err)
		return nil
	}
	if last == nil || at.Before(*last) {
		return nil
	}
	gap := at.Sub(*last).Seconds()
	return &gap
}

func (h *LearningEventHandler) screen(ctx context.Context, dc models.DetectionContext) []models.SuspiciousActivity {
	activities := h.detector.Detect(dc)
	if len(activities) == 0 {
		return []models.SuspiciousActivity{}
	}
	h.recorder.Record(ctx, activities)
	return activities
}
