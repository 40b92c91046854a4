package service

import (
	"code_assessment/internal/app/execution"
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/lock"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// GradingService runs attempts through the test runner and records graded
// submissions. It holds no mutable state of its own.
type GradingService struct {
	questionRepo   repository.QuestionRepository
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	runner         *execution.Runner
	locker         lock.Locker
	now            func() time.Time
}

func NewGradingService(
	questionRepo repository.QuestionRepository,
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	runner *execution.Runner,
	locker lock.Locker,
) *GradingService {
	return &GradingService{
		questionRepo:   questionRepo,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		runner:         runner,
		locker:         locker,
		now:            time.Now,
	}
}

// CodeRequest is the body of the run and submit endpoints.
type CodeRequest struct {
	QuestionID int    `json:"questionId"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

func checkLanguage(lang model.Language) error {
	if _, ok := model.ParseLanguage(string(lang)); !ok {
		return fmt.Errorf("language %q: %w", lang, common.ErrValidation)
	}
	return nil
}

// SubmitSubmission grades code against every test case of the question,
// persists exactly one Submission and, when the code ran, credits the
// score to the user's progress. The attempt runs to completion even if ctx
// is cancelled.
func (s *GradingService) SubmitSubmission(ctx context.Context, userID string, questionID int, code string, lang model.Language) (*model.GradingResult, error) {
	ctx = context.WithoutCancel(ctx)

	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	q, err := s.questionRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	cases, err := s.questionRepo.AllTestCases(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	res, err := s.runner.Run(ctx, q.ID, cases, code, lang)
	if err != nil && !errors.Is(err, common.ErrNoTestCases) {
		return nil, common.Errorf("failed to run submission: %w", err)
	}

	sub := &model.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		QuestionID:  q.ID,
		Code:        code,
		Language:    lang,
		SubmittedAt: s.now(),
	}

	if !res.Success {
		sub.Status = model.SubmissionError
		sub.TestResults = []model.TestResult{}
		if err := s.submissionRepo.SaveSubmission(ctx, sub); err != nil {
			return nil, common.Errorf("failed to save submission: %w", err)
		}
		slog.Info("submission rejected", "submission_id", sub.ID, "user_id", userID, "question_id", q.ID, "reason", res.FailureReason())
		return &model.GradingResult{
			SubmissionID:     sub.ID,
			Score:            0,
			TotalScore:       q.Points,
			MaxScore:         q.Points,
			PassedTests:      0,
			TotalTests:       len(cases),
			Results:          []model.TestResult{},
			CompilationError: res.FailureReason(),
		}, nil
	}

	sub.Status = model.SubmissionCompleted
	sub.TestResults = res.Results
	passed := sub.PassedTests()
	total := len(res.Results)
	sub.Score = passed * q.Points / total

	progress, err := s.recordGraded(ctx, sub)
	if err != nil {
		return nil, err
	}

	slog.Info("submission graded",
		"submission_id", sub.ID, "user_id", userID, "question_id", q.ID,
		"score", sub.Score, "passed", passed, "total", total)

	return &model.GradingResult{
		SubmissionID: sub.ID,
		Score:        sub.Score,
		TotalScore:   progress.TotalScore,
		MaxScore:     q.Points,
		PassedTests:  passed,
		TotalTests:   total,
		Results:      res.Results,
	}, nil
}

// recordGraded saves sub and credits its score while holding the user's
// progress lock. When the lock cannot be taken nothing is written.
// Resubmissions accumulate.
func (s *GradingService) recordGraded(ctx context.Context, sub *model.Submission) (*model.UserProgress, error) {
	unlock, err := s.locker.Lock(ctx, sub.UserID)
	if err != nil {
		slog.Warn("progress lock contention", "user_id", sub.UserID, "error", err)
		return nil, err
	}
	defer unlock()

	current, err := s.progressRepo.GetUserProgress(ctx, sub.UserID)
	if err != nil {
		return nil, common.Errorf("failed to load progress: %w", err)
	}

	if err := s.submissionRepo.SaveSubmission(ctx, sub); err != nil {
		return nil, common.Errorf("failed to save submission: %w", err)
	}

	completed := current.CompletedQuestions
	if !current.HasCompleted(sub.QuestionID) {
		completed = append(completed, sub.QuestionID)
	}
	totalScore := current.TotalScore + sub.Score

	updated, err := s.progressRepo.UpdateUserProgress(ctx, sub.UserID, model.ProgressUpdate{
		CompletedQuestions: completed,
		TotalScore:         &totalScore,
	})
	if err != nil {
		return nil, common.Errorf("failed to update progress: %w", err)
	}
	return updated, nil
}

// RunSubmission runs code against the visible test cases only. Nothing is
// persisted.
func (s *GradingService) RunSubmission(ctx context.Context, userID string, questionID int, code string, lang model.Language) (*model.RunResult, error) {
	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	cases, err := s.questionRepo.VisibleTestCases(ctx, questionID)
	if err != nil {
		return nil, err
	}
	res, err := s.runner.Run(ctx, questionID, cases, code, lang)
	if err != nil && !errors.Is(err, common.ErrNoTestCases) {
		return nil, common.Errorf("failed to run code: %w", err)
	}

	out := &model.RunResult{Results: res.Results}
	if !res.Success {
		out.Error = res.FailureReason()
	}
	slog.Debug("code run", "user_id", userID, "question_id", questionID, "success", res.Success)
	return out, nil
}

// FinalGrade maps a total score to a letter grade by percentage of max.
func FinalGrade(total, maxScore int) string {
	if maxScore <= 0 {
		return "F"
	}
	pct := float64(total) * 100 / float64(maxScore)
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 85:
		return "A"
	case pct >= 80:
		return "A-"
	case pct >= 75:
		return "B+"
	case pct >= 70:
		return "B"
	case pct >= 65:
		return "B-"
	case pct >= 60:
		return "C+"
	case pct >= 55:
		return "C"
	case pct >= 50:
		return "C-"
	case pct >= 45:
		return "D+"
	case pct >= 40:
		return "D"
	default:
		return "F"
	}
}
