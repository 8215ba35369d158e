package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrphanCleanup removes one stored file left behind by a failed ingest.
	TaskOrphanCleanup = "documents:orphan_cleanup"
	// TaskOrphanSweep scans the content store for unreferenced files.
	TaskOrphanSweep = "documents:orphan_sweep"
)

// DefaultOrphanGrace is how old unreferenced content must be before a sweep
// removes it.
const DefaultOrphanGrace = time.Hour

// OrphanSweepSpec runs the sweep nightly (UTC).
const OrphanSweepSpec = "30 2 * * *"

// OrphanCleanupPayload names the storage key to remove.
type OrphanCleanupPayload struct {
	Key string `json:"key"`
}

// OrphanSweepPayload configures a sweep run.
type OrphanSweepPayload struct {
	GraceSeconds int64 `json:"grace_seconds"`
}

// Grace returns the sweep grace period, defaulting when unset.
func (p OrphanSweepPayload) Grace() time.Duration {
	if p.GraceSeconds <= 0 {
		return DefaultOrphanGrace
	}
	return time.Duration(p.GraceSeconds) * time.Second
}

// NewOrphanCleanupTask constructs an orphan cleanup task for key.
func NewOrphanCleanupTask(key string) (*asynq.Task, error) {
	if key == "" {
		return nil, errors.New("orphan cleanup: key required")
	}
	data, err := json.Marshal(OrphanCleanupPayload{Key: key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanCleanup, data), nil
}

// NewOrphanSweepTask constructs a sweep task with the given grace period.
func NewOrphanSweepTask(grace time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(OrphanSweepPayload{GraceSeconds: int64(grace / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanSweep, data), nil
}
