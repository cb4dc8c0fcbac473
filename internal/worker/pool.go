package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lms-backend/internal/models"
	"lms-backend/internal/repository"
	"lms-backend/internal/services"
)

type pdfValidator interface {
	Validate(ctx context.Context, fileID, userID uuid.UUID) (*models.PDFValidationResult, error)
}

type videoValidator interface {
	Validate(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoValidationResult, error)
}

type jobStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type completionWriter interface {
	Upsert(ctx context.Context, c *models.Completion) error
}

type updatePublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// Pool runs completion-validation jobs pulled from the Redis queue.
type Pool struct {
	redis       *redis.Client
	pdf         pdfValidator
	video       videoValidator
	jobRepo     jobStore
	completions completionWriter
	updates     updatePublisher
	workerCount int
	stopChan    chan struct{}

	requeue func(job *models.Job, delay time.Duration)
}

func NewPool(
	redisClient *redis.Client,
	pdf pdfValidator,
	video videoValidator,
	jobRepo jobStore,
	completions completionWriter,
	updates updatePublisher,
	workerCount int,
) *Pool {
	p := &Pool{
		redis:       redisClient,
		pdf:         pdf,
		video:       video,
		jobRepo:     jobRepo,
		completions: completions,
		updates:     updates,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
	p.requeue = p.pushAfter
	return p
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	select {
	case <-p.stopChan:
	default:
		close(p.stopChan)
	}
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, models.CompletionQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)
		p.run(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

// run executes one job and records its outcome.
func (p *Pool) run(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "processing")
	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{JobID: job.ID, Status: "processing"},
	})

	var (
		completion *models.Completion
		err        error
	)
	switch job.Type {
	case models.JobTypeCompletionValidation:
		completion, err = p.processCompletion(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		p.handleFailure(ctx, job, err)
		return
	}
	p.handleSuccess(ctx, job, completion)
}

func (p *Pool) processCompletion(ctx context.Context, job *models.Job) (*models.Completion, error) {
	var cfg models.CompletionJobConfig
	if err := json.Unmarshal(job.ConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("invalid job config: %w", err)
	}

	var (
		result  interface{}
		isValid bool
	)
	switch cfg.SubjectKind {
	case models.SubjectPDF:
		res, err := p.pdf.Validate(ctx, job.ReferenceID, job.UserID)
		if err != nil {
			return nil, err
		}
		result, isValid = res, res.IsValid
	case models.SubjectVideo:
		res, err := p.video.Validate(ctx, job.UserID, job.ReferenceID)
		if err != nil {
			return nil, err
		}
		result, isValid = res, res.IsValid
	default:
		return nil, fmt.Errorf("unknown subject kind: %q", cfg.SubjectKind)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	completion := &models.Completion{
		UserID:      job.UserID,
		SubjectID:   job.ReferenceID,
		SubjectKind: cfg.SubjectKind,
		IsValid:     isValid,
		ResultJSON:  resultJSON,
	}
	if err := p.completions.Upsert(ctx, completion); err != nil {
		return nil, fmt.Errorf("failed to store completion: %w", err)
	}
	return completion, nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, c *models.Completion) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completion_validated",
		Payload: models.CompletionValidatedEvent{
			JobID:       job.ID,
			SubjectID:   c.SubjectID,
			SubjectKind: c.SubjectKind,
			IsValid:     c.IsValid,
			Result:      c.ResultJSON,
		},
	})

	log.Printf("Job %s completed successfully (valid: %t)", job.ID, c.IsValid)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	var notFound *services.NotFoundError
	if job.RetryCount < repository.MaxJobRetries && !errors.As(err, &notFound) {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		p.requeue(job, backoff)
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: errMsg,
		},
	})
}

func (p *Pool) pushAfter(job *models.Job, delay time.Duration) {
	jobBytes, _ := json.Marshal(job)
	time.AfterFunc(delay, func() {
		if err := p.redis.LPush(context.Background(), models.CompletionQueue, string(jobBytes)).Err(); err != nil {
			log.Printf("Job %s could not be requeued: %v", job.ID, err)
		}
	})
}
