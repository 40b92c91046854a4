package worker

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/queue"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// maxJobAttempts bounds how often a job is retried after the executor was
// unavailable.
const maxJobAttempts = 3

// Grader is the part of the grading service a worker drives.
type Grader interface {
	SubmitSubmission(ctx context.Context, userID string, questionID int, code string, lang model.Language) (*model.GradingResult, error)
}

type GradingWorker struct {
	id          int
	queue       queue.JobQueue
	jobRepo     repository.GradingJobRepository
	grader      Grader
	pollTimeout time.Duration
	errorDelay  time.Duration
}

func NewGradingWorker(id int, q queue.JobQueue, jobRepo repository.GradingJobRepository, grader Grader) *GradingWorker {
	return &GradingWorker{
		id:          id,
		queue:       q,
		jobRepo:     jobRepo,
		grader:      grader,
		pollTimeout: 2 * time.Second,
		errorDelay:  time.Second,
	}
}

// Start pops job ids until ctx is cancelled. The job in flight when ctx
// ends is finished first.
func (w *GradingWorker) Start(ctx context.Context) {
	logger := slog.With("worker", w.id)
	logger.Info("grading worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("grading worker stopping")
			return
		default:
		}

		jobID, err := w.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			logger.Error("failed to pop grading job", "error", err)
			select {
			case <-time.After(w.errorDelay):
			case <-ctx.Done():
			}
			continue
		}

		w.process(context.WithoutCancel(ctx), jobID)
	}
}

func (w *GradingWorker) process(ctx context.Context, jobID string) {
	logger := slog.With("worker", w.id, "job_id", jobID)

	job, err := w.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn("skipping unknown grading job")
			return
		}
		logger.Error("failed to fetch grading job", "error", err)
		return
	}
	if job.Status != model.JobStatusQueued {
		logger.Warn("skipping grading job that is not queued", "status", job.Status)
		return
	}

	if err := w.jobRepo.UpdateJobStatus(ctx, job.ID, model.JobStatusProcessing, nil); err != nil {
		logger.Error("failed to mark job processing", "error", err)
	}
	if err := w.jobRepo.IncrementJobAttempts(ctx, job.ID); err != nil {
		logger.Error("failed to increment job attempts", "error", err)
	}

	var payload model.GradingPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		w.fail(ctx, logger, job.ID, fmt.Errorf("invalid job payload: %w", err))
		return
	}

	result, err := w.grader.SubmitSubmission(ctx, job.UserID, payload.QuestionID, payload.Code, payload.Language)
	if err != nil {
		if retryable(err) && job.Attempts+1 < maxJobAttempts {
			w.requeue(ctx, logger, job.ID, err)
			return
		}
		w.fail(ctx, logger, job.ID, err)
		return
	}

	if err := w.jobRepo.CompleteJob(ctx, job.ID, result); err != nil {
		logger.Error("failed to store grading result", "submission_id", result.SubmissionID, "error", err)
		return
	}
	logger.Info("grading job completed", "submission_id", result.SubmissionID, "score", result.Score)
}

// retryable reports failures after which nothing was persisted: the
// executor was unreachable or the progress lock was never taken.
func retryable(err error) bool {
	return errors.Is(err, common.ErrServiceUnavailable) || errors.Is(err, common.ErrLockFailed)
}

func (w *GradingWorker) requeue(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	msg := common.ClientMessage(cause)
	if err := w.jobRepo.UpdateJobStatus(ctx, jobID, model.JobStatusQueued, &msg); err != nil {
		logger.Error("failed to reset job to queued", "error", err)
	}
	if err := w.queue.Requeue(ctx, jobID); err != nil {
		w.fail(ctx, logger, jobID, err)
		return
	}
	logger.Warn("grading job re-queued", "error", cause)
}

func (w *GradingWorker) fail(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	msg := common.ClientMessage(cause)
	logger.Error("grading job failed", "error", cause)
	if err := w.jobRepo.UpdateJobStatus(ctx, jobID, model.JobStatusFailed, &msg); err != nil {
		logger.Error("failed to mark job failed", "error", err)
	}
}
