package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

// LearningEventRepo is the append-only event log for documents and videos.
type LearningEventRepo struct {
	pool *pgxpool.Pool
}

func NewLearningEventRepo(pool *pgxpool.Pool) *LearningEventRepo {
	return &LearningEventRepo{pool: pool}
}

const insertEventQuery = `INSERT INTO learning_events
	(user_id, file_id, subject_kind, action, position, page_num, playback_speed, is_hidden, is_muted, evidence_json, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

func (r *LearningEventRepo) AppendPDFEvent(ctx context.Context, e *models.PDFEvent) error {
	var pageNum *int
	if page, ok := e.PageNum(); ok {
		pageNum = &page
	}

	evidence, err := encodeEvidence(e.Aux.Evidence)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, insertEventQuery,
		e.UserID, e.FileID, models.SubjectPDF, e.Action.Name(), e.Position, pageNum,
		e.Aux.PlaybackSpeed, e.Aux.IsHidden, e.Aux.IsMuted, evidence, e.Timestamp,
	).Scan(&e.ID)
}

func (r *LearningEventRepo) AppendVideoEvent(ctx context.Context, e *models.VideoEvent) error {
	speed := e.Aux.PlaybackSpeed
	if changed, ok := e.Action.(models.VideoSpeedChanged); ok && changed.PlaybackSpeed != nil {
		speed = changed.PlaybackSpeed
	}

	evidence, err := encodeEvidence(e.Aux.Evidence)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, insertEventQuery,
		e.UserID, e.FileID, models.SubjectVideo, e.Action.Name(), e.Position, nil,
		speed, e.Aux.IsHidden, e.Aux.IsMuted, evidence, e.Timestamp,
	).Scan(&e.ID)
}

const selectEventsQuery = `SELECT id, user_id, file_id, action, position, page_num, playback_speed, is_hidden, is_muted, evidence_json, occurred_at
	FROM learning_events
	WHERE user_id = $1 AND file_id = $2 AND subject_kind = $3
	ORDER BY occurred_at ASC, id ASC`

type eventRow struct {
	base    models.LearningEvent
	action  string
	pageNum *int
}

func (r *LearningEventRepo) PDFEvents(ctx context.Context, userID, fileID uuid.UUID) ([]models.PDFEvent, error) {
	rows, err := r.queryEvents(ctx, userID, fileID, models.SubjectPDF)
	if err != nil {
		return nil, err
	}

	events := make([]models.PDFEvent, 0, len(rows))
	for _, row := range rows {
		action, err := models.ParsePDFAction(row.action, row.pageNum)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", row.base.ID, err)
		}
		events = append(events, models.PDFEvent{LearningEvent: row.base, Action: action})
	}
	return events, nil
}

func (r *LearningEventRepo) VideoEvents(ctx context.Context, userID, videoID uuid.UUID) ([]models.VideoEvent, error) {
	rows, err := r.queryEvents(ctx, userID, videoID, models.SubjectVideo)
	if err != nil {
		return nil, err
	}

	events := make([]models.VideoEvent, 0, len(rows))
	for _, row := range rows {
		action, err := models.ParseVideoAction(row.action, row.base.Position, row.base.Aux.PlaybackSpeed)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", row.base.ID, err)
		}
		events = append(events, models.VideoEvent{LearningEvent: row.base, Action: action})
	}
	return events, nil
}

// LastEventAt returns the time of the newest event for the pair, or nil.
func (r *LearningEventRepo) LastEventAt(ctx context.Context, userID, fileID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(occurred_at) FROM learning_events WHERE user_id = $1 AND file_id = $2",
		userID, fileID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (r *LearningEventRepo) queryEvents(ctx context.Context, userID, fileID uuid.UUID, kind string) ([]eventRow, error) {
	rows, err := r.pool.Query(ctx, selectEventsQuery, userID, fileID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s events: %w", kind, err)
	}
	defer rows.Close()

	var out []eventRow
	for rows.Next() {
		var row eventRow
		var evidence []byte
		err := rows.Scan(
			&row.base.ID, &row.base.UserID, &row.base.FileID, &row.action, &row.base.Position,
			&row.pageNum, &row.base.Aux.PlaybackSpeed, &row.base.Aux.IsHidden, &row.base.Aux.IsMuted,
			&evidence, &row.base.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		if len(evidence) > 0 {
			if err := json.Unmarshal(evidence, &row.base.Aux.Evidence); err != nil {
				return nil, fmt.Errorf("event %d: invalid evidence: %w", row.base.ID, err)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeEvidence(evidence map[string]any) ([]byte, error) {
	if len(evidence) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evidence: %w", err)
	}
	return b, nil
}
