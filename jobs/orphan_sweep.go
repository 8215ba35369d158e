package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/internhub/internhub/internal/jobs"
)

// OrphanSweeper removes unreferenced content older than a grace period.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, grace time.Duration) (int, error)
}

// OrphanSweepJob handles TaskOrphanSweep.
type OrphanSweepJob struct {
	Sweeper OrphanSweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrphanSweepJob initialises the sweep handler.
func NewOrphanSweepJob(sweeper OrphanSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrphanSweepJob {
	return &OrphanSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle runs one sweep over the content store.
func (j *OrphanSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sweeper == nil {
		return errors.New("orphan sweep: handler not configured")
	}
	var payload OrphanSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	tracker := j.Metrics.Track(TaskOrphanSweep)
	logger := loggerOr(j.Logger).With(slog.Duration("grace", payload.Grace()))
	logger.Info("starting orphan sweep")

	removed, err := j.Sweeper.SweepOrphans(ctx, payload.Grace())
	j.Metrics.AddRemoved(TaskOrphanSweep, removed)
	if err != nil {
		logger.Error("orphan sweep failed", slog.Int("removed", removed), slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed orphan sweep",
		slog.Int("removed", removed),
		slog.Duration("duration", time.Since(start)),
	)
	return tracker.End(nil)
}

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
