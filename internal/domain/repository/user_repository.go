package repository

import (
	"code_assessment/internal/common"
	"code_assessment/internal/common/security"
	"code_assessment/internal/domain/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

const DemoPassword = "demo123"

// DemoUsers returns the four built-in assessment accounts with hashed passwords.
func DemoUsers() ([]*model.User, error) {
	hash, err := security.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	users := make([]*model.User, 0, 4)
	for i := 1; i <= 4; i++ {
		users = append(users, &model.User{
			ID:             fmt.Sprintf("demo%d", i),
			Email:          fmt.Sprintf("demo%d@example.com", i),
			Name:           fmt.Sprintf("Demo User %d", i),
			HashedPassword: hash,
		})
	}
	return users, nil
}

// SeedUsers creates the given users, skipping ones that already exist.
func SeedUsers(ctx context.Context, repo UserRepository, users []*model.User) error {
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil && !errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, name, hashed_password)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, user.ID, normalizeEmail(user.Email), user.Name, user.HashedPassword)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given id or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, email, name, hashed_password, created_at
	          FROM users WHERE email = $1`
	return r.findOne(ctx, "FindByEmail", query, normalizeEmail(email))
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, email, name, hashed_password, created_at
	          FROM users WHERE id = $1`
	return r.findOne(ctx, "FindByID", query, id)
}

func (r *pgUserRepository) findOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.HashedPassword, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}
