package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type SuspiciousActivityRepo struct {
	pool *pgxpool.Pool
}

func NewSuspiciousActivityRepo(pool *pgxpool.Pool) *SuspiciousActivityRepo {
	return &SuspiciousActivityRepo{pool: pool}
}

func (r *SuspiciousActivityRepo) Create(ctx context.Context, a *models.SuspiciousActivity) error {
	evidence, err := encodeEvidence(a.Evidence)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `INSERT INTO suspicious_activities (id, user_id, file_id, activity_type, reason, evidence_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.FileID, string(a.ActivityType), a.Reason, evidence, a.CreatedAt,
	)
	return err
}

// ListByUser returns a user's activities newest first, optionally for one file.
func (r *SuspiciousActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, fileID *uuid.UUID, limit int) ([]*models.SuspiciousActivity, error) {
	query := `SELECT id, user_id, file_id, activity_type, reason, evidence_json, created_at
		FROM suspicious_activities
		WHERE user_id = $1 AND ($2::uuid IS NULL OR file_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, fileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.SuspiciousActivity
	for rows.Next() {
		a := &models.SuspiciousActivity{}
		var kind string
		var evidence []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileID, &kind, &a.Reason, &evidence, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActivityType = models.ActivityType(kind)
		if len(evidence) > 0 {
			if err := json.Unmarshal(evidence, &a.Evidence); err != nil {
				return nil, fmt.Errorf("activity %s: invalid evidence: %w", a.ID, err)
			}
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
