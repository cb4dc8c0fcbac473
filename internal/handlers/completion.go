package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/repository"
	"lms-backend/internal/services"
)

const maxBatchVideos = 100

type pdfCompletionValidator interface {
	Validate(ctx context.Context, fileID, userID uuid.UUID) (*models.PDFValidationResult, error)
}

type videoCompletionValidator interface {
	Validate(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoValidationResult, error)
	ValidateMultiple(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) map[uuid.UUID]models.VideoValidationResult
}

type completionStore interface {
	Get(ctx context.Context, userID, subjectID uuid.UUID) (*models.Completion, error)
}

type jobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type CompletionHandler struct {
	pdf         pdfCompletionValidator
	video       videoCompletionValidator
	completions completionStore
	jobRepo     jobStore
	redis       *redis.Client
}

func NewCompletionHandler(pdf pdfCompletionValidator, video videoCompletionValidator, completions completionStore, jobRepo jobStore, redisClient *redis.Client) *CompletionHandler {
	return &CompletionHandler{
		pdf:         pdf,
		video:       video,
		completions: completions,
		jobRepo:     jobRepo,
		redis:       redisClient,
	}
}

func (h *CompletionHandler) ValidatePDF(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file ID", r))
		return
	}
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	result, err := h.pdf.Validate(r.Context(), fileID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *CompletionHandler) ValidateVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid video ID", r))
		return
	}
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	result, err := h.video.Validate(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ValidateVideos checks a batch of videos. Videos that could not be validated
// are listed under "missing" and make all_valid false.
func (h *CompletionHandler) ValidateVideos(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateVideosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.VideoIDs) == 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{"video_ids": "at least one video id is required"}})
		return
	}
	if len(req.VideoIDs) > maxBatchVideos {
		handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{"video_ids": "too many video ids"}})
		return
	}

	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	results := h.video.ValidateMultiple(r.Context(), userID, req.VideoIDs)

	missing := []uuid.UUID{}
	for _, id := range req.VideoIDs {
		if _, found := results[id]; !found {
			missing = append(missing, id)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"missing":   missing,
		"all_valid": services.AllValid(req.VideoIDs, results),
	})
}

// Finish queues an asynchronous validation whose outcome is stored and pushed
// over the websocket.
func (h *CompletionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != models.SubjectPDF && kind != models.SubjectVideo {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown subject kind", r))
		return
	}
	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid subject ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	configBytes, _ := json.Marshal(models.CompletionJobConfig{SubjectKind: kind})

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeCompletionValidation,
		ReferenceID: subjectID,
		ConfigJSON:  configBytes,
		CreatedAt:   time.Now(),
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		log.Printf("failed to create completion job for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), models.CompletionQueue, string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GetCompletion returns the last stored outcome for a subject.
func (h *CompletionHandler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid subject ID", r))
		return
	}
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	completion, err := h.completions.Get(r.Context(), userID, subjectID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No completion recorded", r))
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

func (h *CompletionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
