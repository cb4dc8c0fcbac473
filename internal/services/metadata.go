package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/models"
	"lms-backend/internal/repository"
)

type subjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subject, error)
	UpdateTotalPages(ctx context.Context, id uuid.UUID, pages int) error
	UpdateDuration(ctx context.Context, id uuid.UUID, seconds float64) error
}

type pageCounter interface {
	CountPages(relPath string) (int, error)
}

type durationLookup interface {
	Duration(ctx context.Context, videoURL string) (time.Duration, error)
}

// SubjectMetadataService answers the validators' metadata questions. Lengths
// missing from the subject row are derived from the stored PDF or the YouTube
// source and written back.
type SubjectMetadataService struct {
	subjects subjectStore
	pages    pageCounter
	youtube  durationLookup
}

func NewSubjectMetadataService(subjects subjectStore, pages pageCounter, youtube durationLookup) *SubjectMetadataService {
	return &SubjectMetadataService{subjects: subjects, pages: pages, youtube: youtube}
}

func (s *SubjectMetadataService) PDFMetadata(ctx context.Context, fileID uuid.UUID) (*models.SubjectMetadata, error) {
	subject, err := s.load(ctx, fileID, models.SubjectPDF)
	if err != nil {
		return nil, err
	}

	meta := &models.SubjectMetadata{TotalPages: subject.TotalPages}
	if meta.TotalPages != nil || subject.FilePath == nil || s.pages == nil {
		return meta, nil
	}

	pages, err := s.pages.CountPages(*subject.FilePath)
	if err != nil {
		log.Printf("subject metadata: page count unavailable for %s: %v", fileID, err)
		return meta, nil
	}
	if err := s.subjects.UpdateTotalPages(ctx, fileID, pages); err != nil {
		log.Printf("subject metadata: failed to store page count for %s: %v", fileID, err)
	}
	meta.TotalPages = &pages
	return meta, nil
}

func (s *SubjectMetadataService) VideoMetadata(ctx context.Context, videoID uuid.UUID) (*models.SubjectMetadata, error) {
	subject, err := s.load(ctx, videoID, models.SubjectVideo)
	if err != nil {
		return nil, err
	}

	meta := &models.SubjectMetadata{TotalDurationSeconds: subject.DurationSeconds}
	if (meta.TotalDurationSeconds != nil && *meta.TotalDurationSeconds > 0) || subject.SourceURL == nil || s.youtube == nil {
		return meta, nil
	}

	d, err := s.youtube.Duration(ctx, *subject.SourceURL)
	if err != nil {
		log.Printf("subject metadata: duration unavailable for %s: %v", videoID, err)
		return meta, nil
	}
	seconds := d.Seconds()
	if err := s.subjects.UpdateDuration(ctx, videoID, seconds); err != nil {
		log.Printf("subject metadata: failed to store duration for %s: %v", videoID, err)
	}
	meta.TotalDurationSeconds = &seconds
	return meta, nil
}

func (s *SubjectMetadataService) load(ctx context.Context, id uuid.UUID, kind string) (*models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: fmt.Sprintf("Subject %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subject %s: %w", id, err)
	}
	if subject.Kind != kind {
		return nil, &NotFoundError{Message: fmt.Sprintf("Subject %s is not a %s", id, kind)}
	}
	return subject, nil
}
