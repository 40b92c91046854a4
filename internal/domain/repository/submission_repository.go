package repository

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SubmissionRepository is an append-only submission log.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, submission *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	GetSubmissionsByUser(ctx context.Context, userID string) ([]*model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) SaveSubmission(ctx context.Context, s *model.Submission) error {
	results := s.TestResults
	if results == nil {
		results = []model.TestResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SaveSubmission: marshal results: %w", err)
	}

	query := `INSERT INTO submissions (id, user_id, question_id, code, language, status, score, test_results, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.QuestionID, s.Code, s.Language, s.Status, s.Score, string(resultsJSON), s.SubmittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("submission %s already exists: %w", s.ID, common.ErrConflict)
		}
		return fmt.Errorf("pgSubmissionRepository.SaveSubmission: %w", err)
	}
	return nil
}

const submissionColumns = `id, user_id, question_id, code, language, status, score, test_results, submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	var resultsJSON []byte
	if err := row.Scan(&s.ID, &s.UserID, &s.QuestionID, &s.Code, &s.Language, &s.Status, &s.Score, &resultsJSON, &s.SubmittedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultsJSON, &s.TestResults); err != nil {
		return nil, fmt.Errorf("decode test results of %s: %w", s.ID, err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) GetSubmissionsByUser(ctx context.Context, userID string) ([]*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE user_id = $1 ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsByUser: %w", err)
	}
	defer rows.Close()

	submissions := []*model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsByUser: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsByUser: %w", err)
	}
	return submissions, nil
}
