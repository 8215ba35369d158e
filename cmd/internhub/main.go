package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/internhub/internhub/cmd/internhub/cli"
	"github.com/internhub/internhub/internal/app"
	"github.com/internhub/internhub/internal/auth"
	"github.com/internhub/internhub/internal/batches"
	"github.com/internhub/internhub/internal/documents"
	"github.com/internhub/internhub/internal/messages"
	"github.com/internhub/internhub/internal/observability"
	"github.com/internhub/internhub/internal/platform/db"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
	"github.com/internhub/internhub/internal/users"
	"github.com/internhub/internhub/jobs"
)

const usage = `usage: internhub <command>

commands:
  serve                       run the HTTP API (default)
  migrate                     apply database migrations
  bootstrap-admin             create the first CEO account if none exists
  jobs trigger <name> [key]   enqueue documents:orphan_sweep or documents:orphan_cleanup
  jobs stats                  print default queue statistics
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "bootstrap-admin":
		err = bootstrapAdmin(ctx, cfg, logger, args)
	case "jobs":
		err = jobsCommand(ctx, cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd, slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	infra, err := app.OpenInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close(logger)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, nil)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(infra.Pool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authService := auth.NewService(auth.NewRepository(infra.Pool), tokens)
	authHandler := auth.NewHandler(logger, authService, tokens)

	usersRepo := users.NewRepository(infra.Pool)
	directory := users.NewDirectory(usersRepo, infra.Redis, cfg.DirectoryCacheTTL, logger)
	usersService := users.NewService(usersRepo, directory, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	batchesService := batches.NewService(batches.NewRepository(infra.Pool), directory, auditLogger, logger)
	batchesHandler := batches.NewHandler(logger, batchesService, rbacMiddleware)

	messagesService := messages.NewService(messages.NewRepository(infra.Pool), auditLogger, logger)
	messagesHandler := messages.NewHandler(logger, messagesService, rbacMiddleware)

	jobsClient, err := jobs.NewClient(app.RedisOpt(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	docRepo, err := app.NewDocumentRepository(ctx, infra)
	if err != nil {
		return err
	}
	docService := documents.NewService(docRepo, infra.Store, documents.PDFText{MaxBytes: cfg.UploadMaxBytes}, documents.Options{
		Directory: directory,
		Orphans:   jobsClient,
		Observer:  metrics,
		Logger:    logger,
	})
	docHandler := documents.NewHandler(logger, docService, rbacMiddleware, cfg.UploadMaxBytes)

	inspector := asynq.NewInspector(app.RedisOpt(cfg))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         tokens,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		DocumentsHandler: docHandler,
		BatchesHandler:   batchesHandler,
		MessagesHandler:  messagesHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		Readiness:        infra.Readiness(),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func bootstrapAdmin(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("bootstrap-admin", flag.ContinueOnError)
	email := fs.String("email", cfg.BootstrapAdminEmail, "admin email")
	password := fs.String("password", cfg.BootstrapAdminPassword, "admin password (generated when empty)")
	name := fs.String("name", "Administrator", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := users.NewService(users.NewRepository(pool), nil, shared.NewAuditLogger(pool), logger)
	created, err := cli.BootstrapAdmin(ctx, service, cli.BootstrapOptions{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Stdout:   os.Stdout,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Info("admin already exists, nothing to do")
	}
	return nil
}

func jobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("jobs: expected trigger or stats")
	}
	jobsCLI := cli.NewJobsCLI(app.RedisOpt(cfg))
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("jobs trigger: job name required")
		}
		key := ""
		if len(args) > 2 {
			key = args[2]
		}
		info, err := jobsCLI.Trigger(ctx, args[1], key, cfg.OrphanGrace)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue()
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		scheduled, err := jobsCLI.ListScheduled(10)
		if err != nil {
			return err
		}
		for _, t := range scheduled {
			fmt.Printf("  scheduled %s id=%s at=%s\n", t.Type, t.ID, t.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("jobs: unknown subcommand %s", args[0])
	}
	return nil
}
