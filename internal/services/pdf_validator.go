package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/models"
)

type pdfEventSource interface {
	PDFEvents(ctx context.Context, userID, fileID uuid.UUID) ([]models.PDFEvent, error)
}

type pdfMetadataSource interface {
	PDFMetadata(ctx context.Context, fileID uuid.UUID) (*models.SubjectMetadata, error)
}

// PDFValidator decides whether a document was meaningfully read.
type PDFValidator struct {
	events   pdfEventSource
	metadata pdfMetadataSource
	policy   CompletionPolicy
}

func NewPDFValidator(events pdfEventSource, metadata pdfMetadataSource, policy CompletionPolicy) *PDFValidator {
	return &PDFValidator{events: events, metadata: metadata, policy: policy}
}

func (v *PDFValidator) Validate(ctx context.Context, fileID, userID uuid.UUID) (*models.PDFValidationResult, error) {
	events, err := v.events.PDFEvents(ctx, userID, fileID)
	if err != nil {
		return nil, &ValidationFailedError{SubjectKind: models.SubjectPDF, Err: err}
	}

	var totalPages *int
	meta, err := v.metadata.PDFMetadata(ctx, fileID)
	var notFound *NotFoundError
	switch {
	case errors.As(err, &notFound):
		// Unknown documents fall back to the lenient page check.
	case err != nil:
		return nil, &ValidationFailedError{SubjectKind: models.SubjectPDF, Err: err}
	case meta != nil:
		totalPages = meta.TotalPages
	}

	result := EvaluatePDF(events, totalPages, v.policy)
	return &result, nil
}

// EvaluatePDF applies the reading rules to an event history.
func EvaluatePDF(events []models.PDFEvent, totalPages *int, policy CompletionPolicy) models.PDFValidationResult {
	events = sortedPDFEvents(events)

	result := models.PDFValidationResult{
		IsOpened:        isOpened(events),
		DurationMinutes: readingMinutes(events),
		ReachedLastPage: reachedLastPage(events, totalPages),
	}
	result.IsValid = result.IsOpened &&
		time.Duration(result.DurationMinutes)*time.Minute >= policy.MinReadingDuration &&
		result.ReachedLastPage
	return result
}

func isOpened(events []models.PDFEvent) bool {
	for _, e := range events {
		if _, ok := e.Action.(models.PDFOpen); ok {
			return true
		}
	}
	return false
}

func readingMinutes(events []models.PDFEvent) uint32 {
	if len(events) < 2 {
		return 0
	}
	elapsed := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
	if elapsed <= 0 {
		return 0
	}
	return uint32(elapsed / time.Minute)
}

// reachedLastPage compares the furthest page seen against the document length.
// With no known length any page-bearing event is accepted.
func reachedLastPage(events []models.PDFEvent, totalPages *int) bool {
	maxPage, seen := 0, false
	for _, e := range events {
		page, ok := e.PageNum()
		if !ok {
			continue
		}
		if !seen || page > maxPage {
			maxPage = page
		}
		seen = true
	}

	if !seen {
		return false
	}
	if totalPages == nil {
		return true
	}
	return maxPage >= *totalPages
}
