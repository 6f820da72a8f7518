package service

import (
	"context"
	"errors"
	"fmt"

	"cfstats/internal/common"
	"cfstats/internal/common/security"
	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
// An empty username or password is a no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		HashedPassword: hashedPassword,
		Role:           model.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil && !errors.Is(err, common.ErrConflict) {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	zap.L().Info("admin account ready", zap.String("username", username))
	return nil
}
