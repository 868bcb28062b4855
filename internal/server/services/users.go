// Package services implements the backend's business operations on top of
// the repositories.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/server/auth"
	"github.com/versemark/versemark/internal/server/models"
	"github.com/versemark/versemark/internal/server/repositories/users"
)

// UserService registers accounts and exchanges credentials for tokens.
type UserService struct {
	repo   users.Repository
	tokens *auth.Manager
}

func NewUserService(repo users.Repository, tokens *auth.Manager) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the credentials and returns a signed access token. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrUnauthorized
	}

	return s.tokens.GenerateToken(user.ID)
}
