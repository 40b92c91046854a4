package service

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/lock"
	"context"
	"errors"
	"fmt"
	"time"
)

// ProgressService serves the read side of an assessment: progress,
// results, submission history and the leaderboard.
type ProgressService struct {
	questionRepo   repository.QuestionRepository
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	locker         lock.Locker
	budgetSeconds  int
}

func NewProgressService(
	questionRepo repository.QuestionRepository,
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	locker lock.Locker,
	budgetSeconds int,
) *ProgressService {
	return &ProgressService{
		questionRepo:   questionRepo,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		locker:         locker,
		budgetSeconds:  budgetSeconds,
	}
}

type ProgressSummary struct {
	CompletedQuestions int `json:"completedQuestions"`
	TotalQuestions     int `json:"totalQuestions"`
	Score              int `json:"score"`
	TimeRemaining      int `json:"timeRemaining"`
}

type SubmissionSummary struct {
	SubmissionID  string                 `json:"submissionId"`
	QuestionID    int                    `json:"questionId"`
	QuestionTitle string                 `json:"questionTitle"`
	Score         int                    `json:"score"`
	MaxScore      int                    `json:"maxScore"`
	Language      model.Language         `json:"language"`
	Status        model.SubmissionStatus `json:"status"`
	PassedTests   int                    `json:"passedTests"`
	TotalTests    int                    `json:"totalTests"`
	SubmittedAt   string                 `json:"submittedAt"`
}

type ResultsSummary struct {
	TotalScore         int                 `json:"totalScore"`
	MaxScore           int                 `json:"maxScore"`
	Grade              string              `json:"grade"`
	CompletedQuestions int                 `json:"completedQuestions"`
	TotalQuestions     int                 `json:"totalQuestions"`
	TimeSpent          int                 `json:"timeSpent"`
	Submissions        []SubmissionSummary `json:"submissions"`
}

func (s *ProgressService) summarize(p *model.UserProgress) *ProgressSummary {
	return &ProgressSummary{
		CompletedQuestions: len(p.CompletedQuestions),
		TotalQuestions:     s.questionRepo.Count(),
		Score:              p.TotalScore,
		TimeRemaining:      p.TimeRemaining,
	}
}

func (s *ProgressService) GetProgress(ctx context.Context, userID string) (*ProgressSummary, error) {
	p, err := s.progressRepo.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to load progress: %w", err)
	}
	return s.summarize(p), nil
}

// UpdateTimeRemaining stores the client's countdown. Values outside
// [0, budget] are rejected.
func (s *ProgressService) UpdateTimeRemaining(ctx context.Context, userID string, seconds int) (*ProgressSummary, error) {
	if seconds < 0 || seconds > s.budgetSeconds {
		return nil, fmt.Errorf("timeRemaining must be between 0 and %d: %w", s.budgetSeconds, common.ErrValidation)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.progressRepo.UpdateUserProgress(ctx, userID, model.ProgressUpdate{TimeRemaining: &seconds})
	if err != nil {
		return nil, common.Errorf("failed to update progress: %w", err)
	}
	return s.summarize(p), nil
}

// Results aggregates the user's progress with their submission history.
func (s *ProgressService) Results(ctx context.Context, userID string) (*ResultsSummary, error) {
	p, err := s.progressRepo.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to load progress: %w", err)
	}
	subs, err := s.submissionRepo.GetSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to load submissions: %w", err)
	}

	summaries := make([]SubmissionSummary, 0, len(subs))
	for _, sub := range subs {
		summary := SubmissionSummary{
			SubmissionID:  sub.ID,
			QuestionID:    sub.QuestionID,
			QuestionTitle: "Unknown Question",
			Score:         sub.Score,
			Language:      sub.Language,
			Status:        sub.Status,
			PassedTests:   sub.PassedTests(),
			TotalTests:    len(sub.TestResults),
			SubmittedAt:   sub.SubmittedAt.UTC().Format(time.RFC3339),
		}
		q, err := s.questionRepo.FindByID(ctx, sub.QuestionID)
		switch {
		case err == nil:
			summary.QuestionTitle = q.Title
			summary.MaxScore = q.Points
		case !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	maxScore := s.questionRepo.MaxTotalScore()
	return &ResultsSummary{
		TotalScore:         p.TotalScore,
		MaxScore:           maxScore,
		Grade:              FinalGrade(p.TotalScore, maxScore),
		CompletedQuestions: len(p.CompletedQuestions),
		TotalQuestions:     s.questionRepo.Count(),
		TimeSpent:          max(s.budgetSeconds-p.TimeRemaining, 0),
		Submissions:        summaries,
	}, nil
}

func (s *ProgressService) ListSubmissions(ctx context.Context, userID string) ([]*model.Submission, error) {
	subs, err := s.submissionRepo.GetSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to load submissions: %w", err)
	}
	return subs, nil
}

// GetSubmission returns one of the caller's submissions. Another user's
// submission is reported as not found.
func (s *ProgressService) GetSubmission(ctx context.Context, userID, submissionID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, common.Errorf("submission %s: %w", submissionID, common.ErrNotFound)
	}
	return sub, nil
}

func (s *ProgressService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	entries, err := s.progressRepo.GetLeaderboard(ctx, model.LeaderboardLimit)
	if err != nil {
		return nil, common.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}
