package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.ValidationFailedError:
		log.Printf("request %s: %v", r.Header.Get("X-Request-ID"), e)
		writeJSON(w, http.StatusInternalServerError, errorResp("VALIDATION_FAILED", "Learning data could not be loaded", r))
	default:
		log.Printf("request %s: %v", r.Header.Get("X-Request-ID"), err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// targetUser resolves whose data a read request is about. Operators may pass
// ?user_id= to inspect another learner; everyone else sees only their own.
func targetUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	callerID := middleware.GetUserID(r.Context())

	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return callerID, true
	}

	if middleware.GetRole(r.Context()) != middleware.RoleOperator {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return uuid.Nil, false
	}
	return id, true
}
