package service

import (
	"context"

	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/repository"
)

// UserService handles account business logic.
type UserService struct {
	repo *repository.UserRepository
	auth *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{repo: repo, auth: auth}
}

// Register creates a new student account with a hashed password.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves an account by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetByID retrieves an account by id.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}
