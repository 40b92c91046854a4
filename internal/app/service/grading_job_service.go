package service

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/queue"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// GradingJobService accepts submissions for background grading.
type GradingJobService struct {
	jobRepo      repository.GradingJobRepository
	questionRepo repository.QuestionRepository
	queue        queue.JobQueue
}

func NewGradingJobService(jobRepo repository.GradingJobRepository, questionRepo repository.QuestionRepository, q queue.JobQueue) *GradingJobService {
	return &GradingJobService{jobRepo: jobRepo, questionRepo: questionRepo, queue: q}
}

// Enqueue stores a job record and pushes its id for the workers.
func (s *GradingJobService) Enqueue(ctx context.Context, userID string, questionID int, code string, lang model.Language) (*model.GradingJob, error) {
	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	if _, err := s.questionRepo.FindByID(ctx, questionID); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(model.GradingPayload{QuestionID: questionID, Code: code, Language: lang})
	if err != nil {
		return nil, common.Errorf("failed to marshal grading payload: %w", err)
	}

	job := &model.GradingJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuestionID: questionID,
		Language:   lang,
		Payload:    payload,
		Status:     model.JobStatusQueued,
	}
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return nil, common.Errorf("failed to create grading job: %w", err)
	}

	if err := s.queue.Push(ctx, job.ID); err != nil {
		// The record exists but no worker will ever see it.
		msg := "failed to enqueue job"
		if updErr := s.jobRepo.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, model.JobStatusFailed, &msg); updErr != nil {
			slog.Error("failed to mark unqueued job as failed", "job_id", job.ID, "error", updErr)
		}
		return nil, common.Errorf("failed to enqueue grading job: %w", err)
	}

	slog.Info("grading job enqueued", "job_id", job.ID, "user_id", userID, "question_id", questionID)
	return job, nil
}

// Get returns the caller's job. Jobs of other users are reported as not found.
func (s *GradingJobService) Get(ctx context.Context, userID, jobID string) (*model.GradingJob, error) {
	job, err := s.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, common.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return job, nil
}
