package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"lms-backend/internal/models"
)

type activityLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, fileID *uuid.UUID, limit int) ([]*models.SuspiciousActivity, error)
}

type SuspiciousActivityHandler struct {
	activities activityLister
}

func NewSuspiciousActivityHandler(activities activityLister) *SuspiciousActivityHandler {
	return &SuspiciousActivityHandler{activities: activities}
}

func (h *SuspiciousActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	var fileID *uuid.UUID
	if raw := r.URL.Query().Get("file_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file ID", r))
			return
		}
		fileID = &id
	}

	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	activities, err := h.activities.ListByUser(r.Context(), userID, fileID, limit)
	if err != nil {
		log.Printf("failed to list suspicious activities for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activities", r))
		return
	}
	if activities == nil {
		activities = []*models.SuspiciousActivity{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
	})
}
