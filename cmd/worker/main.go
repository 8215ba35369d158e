package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/internhub/internhub/internal/app"
	"github.com/internhub/internhub/internal/documents"
	jobmetrics "github.com/internhub/internhub/internal/jobs"
	"github.com/internhub/internhub/internal/observability"
	"github.com/internhub/internhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	infra, err := app.OpenInfra(ctx, cfg, logger)
	if err != nil {
		logger.Error("open infrastructure", slog.Any("error", err))
		os.Exit(1)
	}
	defer infra.Close(logger)

	docRepo, err := app.NewDocumentRepository(ctx, infra)
	if err != nil {
		logger.Error("document repository", slog.Any("error", err))
		os.Exit(1)
	}
	docService := documents.NewService(docRepo, infra.Store, documents.PDFText{MaxBytes: cfg.UploadMaxBytes}, documents.Options{
		Logger: logger,
	})

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	cleanupJob := jobs.NewOrphanCleanupJob(docService, logger, jobMetrics)
	sweepJob := jobs.NewOrphanSweepJob(docService, logger, jobMetrics)

	sweepTask, err := jobs.NewOrphanSweepTask(cfg.OrphanGrace)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: app.RedisOpt(cfg),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrphanCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskOrphanSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.OrphanSweepSpec, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
