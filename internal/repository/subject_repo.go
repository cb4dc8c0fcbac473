package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type SubjectRepo struct {
	pool *pgxpool.Pool
}

func NewSubjectRepo(pool *pgxpool.Pool) *SubjectRepo {
	return &SubjectRepo{pool: pool}
}

func (r *SubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	s := &models.Subject{}
	query := `SELECT id, kind, title, file_path, source_url, total_pages, duration_seconds, created_at
		FROM subjects WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Kind, &s.Title, &s.FilePath, &s.SourceURL,
		&s.TotalPages, &s.DurationSeconds, &s.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *SubjectRepo) UpdateTotalPages(ctx context.Context, id uuid.UUID, pages int) error {
	_, err := r.pool.Exec(ctx, "UPDATE subjects SET total_pages = $1 WHERE id = $2", pages, id)
	return err
}

func (r *SubjectRepo) UpdateDuration(ctx context.Context, id uuid.UUID, seconds float64) error {
	_, err := r.pool.Exec(ctx, "UPDATE subjects SET duration_seconds = $1 WHERE id = $2", seconds, id)
	return err
}
