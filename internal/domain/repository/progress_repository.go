package repository

import (
	"code_assessment/internal/domain/model"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ProgressRepository owns per-user progress and the leaderboard view.
type ProgressRepository interface {
	// GetUserProgress creates a default record on first access.
	GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error)
	// UpdateUserProgress merges the non-nil fields of update and refreshes
	// lastActivity. It returns the stored record.
	UpdateUserProgress(ctx context.Context, userID string, update model.ProgressUpdate) (*model.UserProgress, error)
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgProgressRepository struct {
	db            *sql.DB
	budgetSeconds int
	now           func() time.Time
}

func NewPgProgressRepository(db *sql.DB, budgetSeconds int) ProgressRepository {
	return &pgProgressRepository{db: db, budgetSeconds: budgetSeconds, now: time.Now}
}

func (r *pgProgressRepository) ensure(ctx context.Context, q queryer, userID string) error {
	query := `INSERT INTO user_progress (user_id, completed_questions, total_score, time_remaining, last_activity)
	          VALUES ($1, '[]'::jsonb, 0, $2, $3)
	          ON CONFLICT (user_id) DO NOTHING`
	_, err := q.ExecContext(ctx, query, userID, r.budgetSeconds, r.now())
	return err
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func selectProgress(ctx context.Context, q queryer, userID string, forUpdate bool) (*model.UserProgress, error) {
	query := `SELECT user_id, completed_questions, total_score, time_remaining, last_activity
	          FROM user_progress WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p := &model.UserProgress{}
	var completed []byte
	if err := q.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &completed, &p.TotalScore, &p.TimeRemaining, &p.LastActivity); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(completed, &p.CompletedQuestions); err != nil {
		return nil, fmt.Errorf("decode completed questions of %s: %w", userID, err)
	}
	if p.CompletedQuestions == nil {
		p.CompletedQuestions = []int{}
	}
	return p, nil
}

func (r *pgProgressRepository) GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	if err := r.ensure(ctx, r.db, userID); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetUserProgress: %w", err)
	}
	p, err := selectProgress(ctx, r.db, userID, false)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetUserProgress: %w", err)
	}
	return p, nil
}

func (r *pgProgressRepository) UpdateUserProgress(ctx context.Context, userID string, update model.ProgressUpdate) (*model.UserProgress, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: begin: %w", err)
	}
	defer tx.Rollback()

	if err := r.ensure(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: %w", err)
	}
	p, err := selectProgress(ctx, tx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: %w", err)
	}

	p.Apply(update, r.now())
	completed, err := json.Marshal(p.CompletedQuestions)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: %w", err)
	}

	query := `UPDATE user_progress
	          SET completed_questions = $1::jsonb, total_score = $2, time_remaining = $3, last_activity = $4
	          WHERE user_id = $5`
	if _, err := tx.ExecContext(ctx, query, string(completed), p.TotalScore, p.TimeRemaining, p.LastActivity, userID); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.UpdateUserProgress: commit: %w", err)
	}
	return p, nil
}

func (r *pgProgressRepository) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT user_id, total_score, jsonb_array_length(completed_questions)
	          FROM user_progress
	          ORDER BY total_score DESC, user_id COLLATE "C" ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetLeaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.UserID, &e.TotalScore, &e.CompletedQuestions); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.GetLeaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetLeaderboard: %w", err)
	}
	return entries, nil
}
