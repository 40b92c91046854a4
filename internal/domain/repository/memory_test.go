package repository

import (
	"code_assessment/internal/common"
	"code_assessment/internal/common/security"
	"code_assessment/internal/domain/model"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProgressLazyDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)

	p, err := store.GetUserProgress(ctx, "demo1")
	require.NoError(t, err)
	assert.Equal(t, "demo1", p.UserID)
	assert.Empty(t, p.CompletedQuestions)
	assert.Zero(t, p.TotalScore)
	assert.Equal(t, 7200, p.TimeRemaining)

	score := 15
	_, err = store.UpdateUserProgress(ctx, "demo1", model.ProgressUpdate{TotalScore: &score})
	require.NoError(t, err)

	again, err := store.GetUserProgress(ctx, "demo1")
	require.NoError(t, err)
	assert.Equal(t, 15, again.TotalScore, "later reads observe earlier updates")
	assert.Equal(t, 7200, again.TimeRemaining)
}

func TestMemoryProgressUpdateRefreshesActivity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	_, err := store.GetUserProgress(ctx, "demo1")
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	remaining := 3600
	p, err := store.UpdateUserProgress(ctx, "demo1", model.ProgressUpdate{TimeRemaining: &remaining})
	require.NoError(t, err)

	assert.Equal(t, clock, p.LastActivity)
	assert.Equal(t, 3600, p.TimeRemaining)
	assert.Zero(t, p.TotalScore)
}

func TestMemoryProgressReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)

	p, err := store.UpdateUserProgress(ctx, "demo1", model.ProgressUpdate{CompletedQuestions: []int{1}})
	require.NoError(t, err)
	p.CompletedQuestions[0] = 99
	p.TotalScore = 1000

	again, err := store.GetUserProgress(ctx, "demo1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, again.CompletedQuestions)
	assert.Zero(t, again.TotalScore)
}

func TestMemorySubmissions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)

	for i, user := range []string{"demo1", "demo2", "demo1"} {
		err := store.SaveSubmission(ctx, &model.Submission{
			ID:          fmt.Sprintf("sub-%d", i),
			UserID:      user,
			QuestionID:  i + 1,
			Language:    model.LanguageJava,
			Status:      model.SubmissionCompleted,
			SubmittedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	err := store.SaveSubmission(ctx, &model.Submission{ID: "sub-0", UserID: "demo3"})
	assert.ErrorIs(t, err, common.ErrConflict, "submissions are never replaced")

	subs, err := store.GetSubmissionsByUser(ctx, "demo1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "sub-0", subs[0].ID)
	assert.Equal(t, "sub-2", subs[1].ID)

	none, err := store.GetSubmissionsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	s, err := store.GetSubmissionByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "demo2", s.UserID)

	_, err = store.GetSubmissionByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)

	scores := map[string]int{"demo1": 10, "demo2": 30, "demo3": 10, "demo4": 0}
	for user, score := range scores {
		s := score
		_, err := store.UpdateUserProgress(ctx, user, model.ProgressUpdate{TotalScore: &s, CompletedQuestions: []int{1}})
		require.NoError(t, err)
	}

	board, err := store.GetLeaderboard(ctx, model.LeaderboardLimit)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, "demo2", board[0].UserID)
	assert.Equal(t, "demo1", board[1].UserID)
	assert.Equal(t, "demo3", board[2].UserID)
	assert.Equal(t, "demo4", board[3].UserID)
	assert.Equal(t, 1, board[0].CompletedQuestions)
	assert.Equal(t, 4, board[3].Rank)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(7200)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", i%5)
			_ = store.SaveSubmission(ctx, &model.Submission{ID: fmt.Sprintf("s%d", i), UserID: user})
			_, _ = store.GetUserProgress(ctx, user)
			_, _ = store.GetLeaderboard(ctx, model.LeaderboardLimit)
		}(i)
	}
	wg.Wait()

	board, err := store.GetLeaderboard(ctx, model.LeaderboardLimit)
	require.NoError(t, err)
	assert.Len(t, board, 5)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	users, err := DemoUsers()
	require.NoError(t, err)
	require.Len(t, users, 4)

	require.NoError(t, SeedUsers(ctx, repo, users))
	require.NoError(t, SeedUsers(ctx, repo, users), "seeding twice is harmless")

	u, err := repo.FindByEmail(ctx, "  DEMO3@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "demo3", u.ID)
	assert.Equal(t, "Demo User 3", u.Name)
	assert.True(t, security.CheckPasswordHash(DemoPassword, u.HashedPassword))

	_, err = repo.FindByID(ctx, "demo9")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.Create(ctx, &model.User{ID: "other", Email: "demo1@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestMemoryGradingJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGradingJobRepository()

	job := &model.GradingJob{ID: "job-1", UserID: "demo1", QuestionID: 2, Language: model.LanguageCpp, Status: model.JobStatusQueued}
	require.NoError(t, repo.CreateJob(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	require.NoError(t, repo.IncrementJobAttempts(ctx, "job-1"))
	require.NoError(t, repo.UpdateJobStatus(ctx, "job-1", model.JobStatusProcessing, nil))

	result := &model.GradingResult{SubmissionID: "sub-1", Score: 15, PassedTests: 6, TotalTests: 6}
	require.NoError(t, repo.CompleteJob(ctx, "job-1", result))

	got, err := repo.GetJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.SubmissionID)
	assert.Equal(t, "sub-1", *got.SubmissionID)
	assert.Equal(t, 15, got.Result.Score)

	msg := "boom"
	require.NoError(t, repo.UpdateJobStatus(ctx, "job-1", model.JobStatusFailed, &msg))
	got, err = repo.GetJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "boom", *got.LastError)

	assert.ErrorIs(t, repo.UpdateJobStatus(ctx, "missing", model.JobStatusFailed, nil), common.ErrNotFound)
	_, err = repo.GetJobByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
