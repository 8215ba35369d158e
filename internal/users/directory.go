package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const directoryKeyPrefix = "internhub:users:summary:"

// SummaryLoader reads summaries from the source of truth.
type SummaryLoader interface {
	Summaries(ctx context.Context, ids []string) ([]Summary, error)
}

// Directory resolves user ids to summaries through a Redis read-through
// cache. A nil client disables caching.
type Directory struct {
	loader SummaryLoader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	// gen counts invalidations so loads that raced one are not cached.
	gen atomic.Uint64
}

type loadResult struct {
	summaries []Summary
	gen       uint64
}

// NewDirectory builds a Directory.
func NewDirectory(loader SummaryLoader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Directory{loader: loader, client: client, ttl: ttl, logger: logger}
}

// Lookup returns summaries for the known ids. Unknown ids are absent.
func (d *Directory) Lookup(ctx context.Context, ids []string) (map[string]Summary, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	misses := ids
	if d.client != nil {
		var err error
		misses, err = d.fromCache(ctx, ids, out)
		if err != nil {
			d.logger.Warn("user directory cache read", slog.Any("error", err))
			misses = ids
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	// Collapsed callers share the load, so it must outlive the caller that started it.
	v, err, _ := d.group.Do(strings.Join(misses, ","), func() (any, error) {
		gen := d.gen.Load()
		summaries, err := d.loader.Summaries(context.WithoutCancel(ctx), misses)
		return loadResult{summaries: summaries, gen: gen}, err
	})
	if err != nil {
		return nil, err
	}
	loaded := v.(loadResult)
	for _, s := range loaded.summaries {
		out[s.ID] = s
	}
	d.store(ctx, loaded)
	return out, nil
}

// Invalidate drops cached entries for ids.
func (d *Directory) Invalidate(ctx context.Context, ids ...string) error {
	if d == nil || len(ids) == 0 {
		return nil
	}
	d.gen.Add(1)
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, directoryKeys(ids)...).Err()
}

func (d *Directory) fromCache(ctx context.Context, ids []string, out map[string]Summary) ([]string, error) {
	vals, err := d.client.MGet(ctx, directoryKeys(ids)...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	var misses []string
	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var s Summary
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		out[ids[i]] = s
	}
	return misses, nil
}

func (d *Directory) store(ctx context.Context, loaded loadResult) {
	if d.client == nil || len(loaded.summaries) == 0 || d.gen.Load() != loaded.gen {
		return
	}
	ids := make([]string, 0, len(loaded.summaries))
	pipe := d.client.Pipeline()
	for _, s := range loaded.summaries {
		payload, err := json.Marshal(s)
		if err != nil {
			continue
		}
		pipe.Set(ctx, directoryKeyPrefix+s.ID, payload, d.ttl)
		ids = append(ids, s.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("user directory cache write", slog.Any("error", err))
		return
	}
	// An invalidation that landed during the write wins.
	if d.gen.Load() != loaded.gen && len(ids) > 0 {
		if err := d.client.Del(ctx, directoryKeys(ids)...).Err(); err != nil {
			d.logger.Warn("user directory cache rollback", slog.Any("error", err))
		}
	}
}

func directoryKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = directoryKeyPrefix + id
	}
	return keys
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
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
