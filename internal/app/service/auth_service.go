package service

import (
	"code_assessment/internal/common"
	"code_assessment/internal/common/security"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Login checks the credentials and issues a session token. Unknown emails
// and wrong passwords both fail with common.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	slog.Info("user logged in", "user_id", user.ID)
	return &AuthResponse{User: user.Public(), Token: token}, nil
}

// Verify resolves the token's subject to a current user.
func (s *AuthService) Verify(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.PublicUser{}, common.ErrUnauthorized
		}
		return model.PublicUser{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user.Public(), nil
}
