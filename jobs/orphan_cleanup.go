package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/internhub/internhub/internal/jobs"
	"github.com/internhub/internhub/internal/platform/httpx"
)

// OrphanRemover deletes stored content that no document record references.
type OrphanRemover interface {
	RemoveOrphan(ctx context.Context, key string) (bool, error)
}

// OrphanCleanupJob handles TaskOrphanCleanup.
type OrphanCleanupJob struct {
	Remover OrphanRemover
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrphanCleanupJob initialises the cleanup handler.
func NewOrphanCleanupJob(remover OrphanRemover, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrphanCleanupJob {
	return &OrphanCleanupJob{Remover: remover, Logger: logger, Metrics: metrics}
}

// Handle removes the key carried by the task if it is still unreferenced.
func (j *OrphanCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Remover == nil {
		return errors.New("orphan cleanup: handler not configured")
	}
	var payload OrphanCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Key == "" {
		return fmt.Errorf("orphan cleanup: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskOrphanCleanup)
	logger := loggerOr(j.Logger).With(slog.String("key", payload.Key))

	removed, err := j.Remover.RemoveOrphan(ctx, payload.Key)
	if err != nil {
		logger.Error("orphan cleanup failed", slog.Any("error", err))
		if errors.Is(err, httpx.ErrValidation) {
			return tracker.End(fmt.Errorf("%w: %w", err, asynq.SkipRetry))
		}
		return tracker.End(err)
	}
	if removed {
		j.Metrics.AddRemoved(TaskOrphanCleanup, 1)
		logger.Info("orphan cleanup removed file")
	} else {
		logger.Info("orphan cleanup skipped, file referenced or gone")
	}
	return tracker.End(nil)
}
