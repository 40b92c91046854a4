package repository

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps submissions and progress in process memory. It
// implements SubmissionRepository and ProgressRepository.
type MemoryStore struct {
	mu            sync.RWMutex
	submissions   []*model.Submission
	byID          map[string]*model.Submission
	progress      map[string]*model.UserProgress
	budgetSeconds int
	now           func() time.Time
}

func NewMemoryStore(budgetSeconds int) *MemoryStore {
	return &MemoryStore{
		byID:          make(map[string]*model.Submission),
		progress:      make(map[string]*model.UserProgress),
		budgetSeconds: budgetSeconds,
		now:           time.Now,
	}
}

func (m *MemoryStore) SaveSubmission(ctx context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[s.ID]; exists {
		return fmt.Errorf("submission %s already exists: %w", s.ID, common.ErrConflict)
	}
	c := s.Clone()
	m.submissions = append(m.submissions, c)
	m.byID[c.ID] = c
	return nil
}

func (m *MemoryStore) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) GetSubmissionsByUser(ctx context.Context, userID string) ([]*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.Submission{}
	for _, s := range m.submissions {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// getOrCreate must be called with mu held for writing.
func (m *MemoryStore) getOrCreate(userID string) *model.UserProgress {
	p, ok := m.progress[userID]
	if !ok {
		p = model.NewUserProgress(userID, m.budgetSeconds, m.now())
		m.progress[userID] = p
	}
	return p
}

func (m *MemoryStore) GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(userID).Clone(), nil
}

func (m *MemoryStore) UpdateUserProgress(ctx context.Context, userID string, update model.ProgressUpdate) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.getOrCreate(userID)
	p.Apply(update, m.now())
	return p.Clone(), nil
}

func (m *MemoryStore) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	m.mu.RLock()
	all := make([]*model.UserProgress, 0, len(m.progress))
	for _, p := range m.progress {
		all = append(all, p.Clone())
	}
	m.mu.RUnlock()
	return model.RankLeaderboard(all, limit), nil
}

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(user.Email)
	if _, ok := r.byID[user.ID]; ok {
		return fmt.Errorf("user %s already exists: %w", user.ID, common.ErrConflict)
	}
	if _, ok := r.byEmail[email]; ok {
		return fmt.Errorf("user with email %s already exists: %w", email, common.ErrConflict)
	}
	c := *user
	c.Email = email
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.byID[c.ID] = &c
	r.byEmail[email] = &c
	return nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *u
	return &c, nil
}

type memoryGradingJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*model.GradingJob
	now  func() time.Time
}

func NewMemoryGradingJobRepository() GradingJobRepository {
	return &memoryGradingJobRepository{jobs: make(map[string]*model.GradingJob), now: time.Now}
}

func (r *memoryGradingJobRepository) CreateJob(ctx context.Context, job *model.GradingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists: %w", job.ID, common.ErrConflict)
	}
	now := r.now()
	job.CreatedAt, job.UpdatedAt = now, now
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *memoryGradingJobRepository) GetJobByID(ctx context.Context, id string) (*model.GradingJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return job.Clone(), nil
}

func (r *memoryGradingJobRepository) update(id string, fn func(*model.GradingJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(job)
	job.UpdatedAt = r.now()
	return nil
}

func (r *memoryGradingJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError *string) error {
	return r.update(jobID, func(j *model.GradingJob) {
		j.Status = status
		j.LastError = nil
		if lastError != nil {
			msg := *lastError
			j.LastError = &msg
		}
	})
}

func (r *memoryGradingJobRepository) IncrementJobAttempts(ctx context.Context, jobID string) error {
	return r.update(jobID, func(j *model.GradingJob) { j.Attempts++ })
}

func (r *memoryGradingJobRepository) CompleteJob(ctx context.Context, jobID string, result *model.GradingResult) error {
	return r.update(jobID, func(j *model.GradingJob) {
		id := result.SubmissionID
		res := *result
		res.Results = append([]model.TestResult(nil), result.Results...)
		j.Status = model.JobStatusCompleted
		j.SubmissionID = &id
		j.Result = &res
		j.LastError = nil
	})
}
