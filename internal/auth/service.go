package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return "", time.Time{}, httpx.Errorf(httpx.ErrValidation, "Invalid Credentials")
		}
		return "", time.Time{}, fmt.Errorf("login: %w", err)
	}
	return s.tokens.Issue(user.Principal())
}

// Current loads the account behind a verified principal.
func (s *Service) Current(ctx context.Context, p shared.Principal) (*User, error) {
	user, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, httpx.Errorf(httpx.ErrNotFound, "User not found")
		}
		return nil, err
	}
	return user, nil
}
