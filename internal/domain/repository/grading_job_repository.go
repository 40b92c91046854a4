package repository

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type GradingJobRepository interface {
	CreateJob(ctx context.Context, job *model.GradingJob) error
	GetJobByID(ctx context.Context, id string) (*model.GradingJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError *string) error
	IncrementJobAttempts(ctx context.Context, jobID string) error
	// CompleteJob stores the grading outcome and marks the job Completed.
	CompleteJob(ctx context.Context, jobID string, result *model.GradingResult) error
}

type pgGradingJobRepository struct {
	db *sql.DB
}

func NewPgGradingJobRepository(db *sql.DB) GradingJobRepository {
	return &pgGradingJobRepository{db: db}
}

func (r *pgGradingJobRepository) CreateJob(ctx context.Context, job *model.GradingJob) error {
	query := `INSERT INTO grading_jobs (id, user_id, question_id, language, payload, status, attempts)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		job.ID, job.UserID, job.QuestionID, job.Language, string(job.Payload), job.Status, job.Attempts,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.CreateJob: %w", err)
	}
	return nil
}

func (r *pgGradingJobRepository) GetJobByID(ctx context.Context, id string) (*model.GradingJob, error) {
	query := `SELECT id, user_id, question_id, language, payload, status, attempts, submission_id, result, last_error, created_at, updated_at
	          FROM grading_jobs WHERE id = $1`
	job := &model.GradingJob{}
	var payload, result []byte
	var submissionID, lastError sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.QuestionID, &job.Language, &payload, &job.Status, &job.Attempts,
		&submissionID, &result, &lastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgGradingJobRepository.GetJobByID: %w", err)
	}
	job.Payload = payload
	if submissionID.Valid {
		job.SubmissionID = &submissionID.String
	}
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	if len(result) > 0 {
		job.Result = &model.GradingResult{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("pgGradingJobRepository.GetJobByID: decode result: %w", err)
		}
	}
	return job, nil
}

func (r *pgGradingJobRepository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.%s: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgGradingJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError *string) error {
	query := `UPDATE grading_jobs SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	return r.exec(ctx, "UpdateJobStatus", query, status, lastError, jobID)
}

func (r *pgGradingJobRepository) IncrementJobAttempts(ctx context.Context, jobID string) error {
	query := `UPDATE grading_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	return r.exec(ctx, "IncrementJobAttempts", query, jobID)
}

func (r *pgGradingJobRepository) CompleteJob(ctx context.Context, jobID string, result *model.GradingResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.CompleteJob: %w", err)
	}
	query := `UPDATE grading_jobs
	          SET status = $1, submission_id = $2, result = $3::jsonb, last_error = NULL, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	return r.exec(ctx, "CompleteJob", query, model.JobStatusCompleted, result.SubmissionID, string(resultJSON), jobID)
}
