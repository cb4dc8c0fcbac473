package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type CompletionRepo struct {
	pool *pgxpool.Pool
}

func NewCompletionRepo(pool *pgxpool.Pool) *CompletionRepo {
	return &CompletionRepo{pool: pool}
}

// Upsert keeps only the latest validation outcome per user and subject.
func (r *CompletionRepo) Upsert(ctx context.Context, c *models.Completion) error {
	query := `INSERT INTO completions (user_id, subject_id, subject_kind, is_valid, result_json, validated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, subject_id) DO UPDATE
		SET is_valid = EXCLUDED.is_valid,
			result_json = EXCLUDED.result_json,
			validated_at = EXCLUDED.validated_at
		RETURNING validated_at`

	return r.pool.QueryRow(ctx, query,
		c.UserID, c.SubjectID, c.SubjectKind, c.IsValid, c.ResultJSON,
	).Scan(&c.ValidatedAt)
}

func (r *CompletionRepo) Get(ctx context.Context, userID, subjectID uuid.UUID) (*models.Completion, error) {
	c := &models.Completion{}
	err := r.pool.QueryRow(ctx, `SELECT user_id, subject_id, subject_kind, is_valid, result_json, validated_at
		FROM completions WHERE user_id = $1 AND subject_id = $2`, userID, subjectID,
	).Scan(&c.UserID, &c.SubjectID, &c.SubjectKind, &c.IsValid, &c.ResultJSON, &c.ValidatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}
