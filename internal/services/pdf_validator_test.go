package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/models"
)

var pdfEpoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func pev(offset time.Duration, action models.PDFAction) models.PDFEvent {
	e := models.PDFEvent{
		LearningEvent: models.LearningEvent{Timestamp: pdfEpoch.Add(offset)},
		Action:        action,
	}
	if page, ok := e.PageNum(); ok {
		e.Position = float64(page)
	}
	return e
}

func intPtr(v int) *int { return &v }

func TestEvaluatePDF_Empty(t *testing.T) {
	res := EvaluatePDF(nil, intPtr(10), DefaultCompletionPolicy())
	if res != (models.PDFValidationResult{}) {
		t.Fatalf("expected zero result, got %+v", res)
	}
}

func TestEvaluatePDF_TooShort(t *testing.T) {
	events := []models.PDFEvent{
		pev(0, models.PDFOpen{}),
		pev(time.Minute, models.PDFPageTurn{PageNum: 5}),
		pev(3*time.Minute, models.PDFPageTurn{PageNum: 10}),
	}

	res := EvaluatePDF(events, intPtr(10), DefaultCompletionPolicy())
	if !res.IsOpened || !res.ReachedLastPage {
		t.Fatalf("expected opened and last page reached, got %+v", res)
	}
	if res.DurationMinutes != 3 {
		t.Fatalf("expected 3 minutes, got %d", res.DurationMinutes)
	}
	if res.IsValid {
		t.Fatalf("expected short session to be invalid")
	}
}

func TestEvaluatePDF_Rules(t *testing.T) {
	tests := []struct {
		name       string
		events     []models.PDFEvent
		totalPages *int
		want       models.PDFValidationResult
	}{
		{
			name: "complete read",
			events: []models.PDFEvent{
				pev(0, models.PDFOpen{}),
				pev(2*time.Minute, models.PDFPageTurn{PageNum: 4}),
				pev(6*time.Minute, models.PDFPageTurn{PageNum: 8}),
				pev(7*time.Minute, models.PDFFinish{}),
			},
			totalPages: intPtr(8),
			want:       models.PDFValidationResult{IsOpened: true, DurationMinutes: 7, ReachedLastPage: true, IsValid: true},
		},
		{
			name: "minutes are floored",
			events: []models.PDFEvent{
				pev(0, models.PDFOpen{}),
				pev(4*time.Minute+59*time.Second, models.PDFPageTurn{PageNum: 3}),
			},
			totalPages: intPtr(3),
			want:       models.PDFValidationResult{IsOpened: true, DurationMinutes: 4, ReachedLastPage: true},
		},
		{
			name: "never opened",
			events: []models.PDFEvent{
				pev(0, models.PDFPageTurn{PageNum: 1}),
				pev(10*time.Minute, models.PDFPageTurn{PageNum: 2}),
			},
			totalPages: intPtr(2),
			want:       models.PDFValidationResult{DurationMinutes: 10, ReachedLastPage: true},
		},
		{
			name: "stopped before the end",
			events: []models.PDFEvent{
				pev(0, models.PDFOpen{}),
				pev(10*time.Minute, models.PDFPageTurn{PageNum: 7}),
			},
			totalPages: intPtr(10),
			want:       models.PDFValidationResult{IsOpened: true, DurationMinutes: 10},
		},
		{
			name: "unknown length accepts any page",
			events: []models.PDFEvent{
				pev(0, models.PDFOpen{}),
				pev(6*time.Minute, models.PDFPageTurn{PageNum: 2}),
			},
			want: models.PDFValidationResult{IsOpened: true, DurationMinutes: 6, ReachedLastPage: true, IsValid: true},
		},
		{
			name: "unknown length without pages",
			events: []models.PDFEvent{
				pev(0, models.PDFOpen{}),
				pev(6*time.Minute, models.PDFClose{}),
			},
			want: models.PDFValidationResult{IsOpened: true, DurationMinutes: 6},
		},
		{
			name: "out of order input",
			events: []models.PDFEvent{
				pev(6*time.Minute, models.PDFPageTurn{PageNum: 2}),
				pev(0, models.PDFOpen{}),
			},
			totalPages: intPtr(2),
			want:       models.PDFValidationResult{IsOpened: true, DurationMinutes: 6, ReachedLastPage: true, IsValid: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluatePDF(tc.events, tc.totalPages, DefaultCompletionPolicy())
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

type stubPDFSource struct {
	events   []models.PDFEvent
	pages    *int
	eventErr error
	metaErr  error
}

func (s *stubPDFSource) PDFEvents(ctx context.Context, userID, fileID uuid.UUID) ([]models.PDFEvent, error) {
	return s.events, s.eventErr
}

func (s *stubPDFSource) PDFMetadata(ctx context.Context, fileID uuid.UUID) (*models.SubjectMetadata, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return &models.SubjectMetadata{TotalPages: s.pages}, nil
}

func TestPDFValidator_Validate(t *testing.T) {
	src := &stubPDFSource{
		events: []models.PDFEvent{
			pev(0, models.PDFOpen{}),
			pev(9*time.Minute, models.PDFPageTurn{PageNum: 12}),
		},
		pages: intPtr(12),
	}
	v := NewPDFValidator(src, src, DefaultCompletionPolicy())

	res, err := v.Validate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid result, got %+v", res)
	}
}

func TestPDFValidator_UnknownDocumentIsLenient(t *testing.T) {
	src := &stubPDFSource{
		events: []models.PDFEvent{
			pev(0, models.PDFOpen{}),
			pev(5*time.Minute, models.PDFPageTurn{PageNum: 1}),
		},
		metaErr: &NotFoundError{Message: "Subject not found"},
	}
	v := NewPDFValidator(src, src, DefaultCompletionPolicy())

	res, err := v.Validate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ReachedLastPage || !res.IsValid {
		t.Fatalf("expected lenient page check to pass, got %+v", res)
	}
}

func TestPDFValidator_StorageFailure(t *testing.T) {
	boom := errors.New("pool closed")

	tests := []struct {
		name string
		src  *stubPDFSource
	}{
		{"events", &stubPDFSource{eventErr: boom}},
		{"metadata", &stubPDFSource{metaErr: boom}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewPDFValidator(tc.src, tc.src, DefaultCompletionPolicy())
			res, err := v.Validate(context.Background(), uuid.New(), uuid.New())
			if res != nil {
				t.Fatalf("expected no partial result, got %+v", res)
			}
			var failed *ValidationFailedError
			if !errors.As(err, &failed) {
				t.Fatalf("expected ValidationFailedError, got %v", err)
			}
			if failed.SubjectKind != models.SubjectPDF || !errors.Is(err, boom) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
