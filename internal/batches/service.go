package batches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

// RepositoryPort defines data access methods for batches.
type RepositoryPort interface {
	ListBatches(ctx context.Context) ([]Batch, error)
	CreateBatch(ctx context.Context, batch Batch) ([]string, error)
	DeleteBatch(ctx context.Context, id string) ([]string, error)
}

// Invalidator drops cached user entries after membership changes.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// Service handles batch business logic.
type Service struct {
	repo   RepositoryPort
	cache  Invalidator
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, now: time.Now}
}

// ListBatches returns every batch.
func (s *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	if batches == nil {
		batches = []Batch{}
	}
	return batches, nil
}

// CreateBatch creates a batch and assigns the listed users to it.
func (s *Service) CreateBatch(ctx context.Context, actor shared.Principal, in CreateInput) (Batch, error) {
	batch := Batch{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		MemberIDs: dedupe(in.UserIDs),
		CreatedAt: s.now().UTC(),
	}
	if batch.Name == "" {
		return Batch{}, httpx.Errorf(httpx.ErrValidation, "Batch name is required")
	}
	members, err := s.repo.CreateBatch(ctx, batch)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownMembers):
			return Batch{}, httpx.Errorf(httpx.ErrValidation, "One or more users do not exist")
		case shared.IsUniqueViolation(err):
			return Batch{}, httpx.Errorf(httpx.ErrDuplicate, "Batch already exists")
		}
		return Batch{}, fmt.Errorf("create batch: %w", err)
	}
	if members == nil {
		members = []string{}
	}
	batch.MemberIDs = members
	s.invalidate(ctx, batch.MemberIDs)
	s.record(ctx, actor, "batches.create", batch.ID, map[string]any{"name": batch.Name, "members": len(batch.MemberIDs)})
	return batch, nil
}

// DeleteBatch removes a batch and clears member back-references.
func (s *Service) DeleteBatch(ctx context.Context, actor shared.Principal, id string) error {
	cleared, err := s.repo.DeleteBatch(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.Errorf(httpx.ErrNotFound, "Batch not found")
		}
		return fmt.Errorf("delete batch: %w", err)
	}
	s.invalidate(ctx, cleared)
	s.record(ctx, actor, "batches.delete", id, map[string]any{"cleared": len(cleared)})
	return nil
}

func (s *Service) invalidate(ctx context.Context, ids []string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("invalidate user directory", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actor shared.Principal, action, id string, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "batch", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit batch change", slog.String("action", action), slog.Any("error", err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
