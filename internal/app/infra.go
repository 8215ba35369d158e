package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/internhub/internhub/internal/documents"
	"github.com/internhub/internhub/internal/platform/cache"
	"github.com/internhub/internhub/internal/platform/db"
	mongodb "github.com/internhub/internhub/internal/platform/mongo"
	"github.com/internhub/internhub/internal/platform/storage"
)

// Infra holds connections to the backing services shared by the API server
// and the worker.
type Infra struct {
	Pool    *pgxpool.Pool
	Mongo   *mongo.Client
	MongoDB *mongo.Database
	Redis   *redis.Client
	Store   storage.Store
}

// OpenInfra connects to PostgreSQL, MongoDB, Redis and the content store.
// Redis is optional: when it is unreachable the directory cache is bypassed.
func OpenInfra(ctx context.Context, cfg *Config, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{}
	var err error

	infra.Pool, err = db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}

	infra.Mongo, infra.MongoDB, err = mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		infra.Close(logger)
		return nil, err
	}

	infra.Redis, err = cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, directory cache disabled", slog.Any("error", err))
	}

	infra.Store, err = NewStore(ctx, cfg)
	if err != nil {
		infra.Close(logger)
		return nil, err
	}
	return infra, nil
}

// Close releases every open connection.
func (i *Infra) Close(logger *slog.Logger) {
	if i == nil {
		return
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if err := mongodb.Close(i.Mongo); err != nil {
		logger.Warn("mongo close", slog.Any("error", err))
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
}

// Readiness lists checks for the /readyz endpoint.
func (i *Infra) Readiness() []ReadinessCheck {
	checks := []ReadinessCheck{
		{Name: "postgres", Check: i.Pool.Ping},
		{Name: "mongo", Check: func(ctx context.Context) error { return i.Mongo.Ping(ctx, nil) }},
	}
	if i.Redis != nil {
		checks = append(checks, ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return i.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

// NewStore selects the content store named by STORAGE_DRIVER.
func NewStore(ctx context.Context, cfg *Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "fs", "":
		return storage.NewFSStore(cfg.StorageDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// NewDocumentRepository binds the documents collection and ensures its indexes.
func NewDocumentRepository(ctx context.Context, infra *Infra) (*documents.MongoRepository, error) {
	repo := documents.NewMongoRepository(infra.MongoDB)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// RedisOpt returns the asynq connection options for cfg.
func RedisOpt(cfg *Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}
