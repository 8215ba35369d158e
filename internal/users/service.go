package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

// PasswordCost is the bcrypt cost for stored hashes.
const PasswordCost = 10

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	BatchExists(ctx context.Context, id string) (bool, error)
	Summaries(ctx context.Context, ids []string) ([]Summary, error)
}

// Service handles user business logic.
type Service struct {
	repo      RepositoryPort
	directory *Directory
	audit     shared.AuditRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, directory *Directory, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, directory: directory, audit: audit, logger: logger, now: time.Now}
}

// ListUsers returns users, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, httpx.Errorf(httpx.ErrNotFound, "User not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateUser registers a new account on behalf of actor.
func (s *Service) CreateUser(ctx context.Context, actor shared.Principal, in CreateInput) (User, error) {
	role, err := shared.ParseRole(in.Role)
	if err != nil {
		return User{}, httpx.Errorf(httpx.ErrValidation, "Invalid role")
	}
	batchID := ApplyBatchRule(role, in.BatchID)
	if err := s.ensureBatch(ctx, batchID); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		Phone:        trimmed(in.Phone),
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
		BatchID:      batchID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if shared.IsUniqueViolation(err) {
			return User{}, httpx.Errorf(httpx.ErrDuplicate, "User already exists")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.record(ctx, actor, "users.create", user.ID, map[string]any{"role": user.Role, "batchId": user.BatchID})
	return user, nil
}

// UpdateUser applies a partial update. The batch reference is always taken
// from the request and dropped for roles that cannot hold one.
func (s *Service) UpdateUser(ctx context.Context, actor shared.Principal, id string, in UpdateInput) (User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Role != nil {
		role, err := shared.ParseRole(*in.Role)
		if err != nil {
			return User{}, httpx.Errorf(httpx.ErrValidation, "Invalid role")
		}
		user.Role = role
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		user.Phone = trimmed(in.Phone)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	user.BatchID = ApplyBatchRule(user.Role, in.BatchID)
	if err := s.ensureBatch(ctx, user.BatchID); err != nil {
		return User{}, err
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return User{}, httpx.Errorf(httpx.ErrNotFound, "User not found")
		case shared.IsUniqueViolation(err):
			return User{}, httpx.Errorf(httpx.ErrDuplicate, "User already exists")
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, id)
	s.record(ctx, actor, "users.update", id, map[string]any{"role": user.Role, "batchId": user.BatchID})
	return s.GetUser(ctx, id)
}

// DeleteUser removes an account. Actors cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor shared.Principal, id string) error {
	if actor.ID == id {
		return httpx.Errorf(httpx.ErrForbidden, "You cannot delete your own account.")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.Errorf(httpx.ErrNotFound, "User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidate(ctx, id)
	s.record(ctx, actor, "users.delete", id, nil)
	return nil
}

func (s *Service) ensureBatch(ctx context.Context, batchID *string) error {
	if batchID == nil {
		return nil
	}
	ok, err := s.repo.BatchExists(ctx, *batchID)
	if err != nil {
		return fmt.Errorf("check batch: %w", err)
	}
	if !ok {
		return httpx.Errorf(httpx.ErrValidation, "Batch not found")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if err := s.directory.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("invalidate user directory", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actor shared.Principal, action, id string, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "user", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit user change", slog.String("action", action), slog.Any("error", err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
