package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/internhub/internhub/internal/auth"
	"github.com/internhub/internhub/internal/batches"
	"github.com/internhub/internhub/internal/documents"
	"github.com/internhub/internhub/internal/messages"
	"github.com/internhub/internhub/internal/observability"
	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/users"
	"github.com/internhub/internhub/jobs"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         auth.Verifier
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	DocumentsHandler *documents.Handler
	BatchesHandler   *batches.Handler
	MessagesHandler  *messages.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Readiness        []ReadinessCheck
}

// NewRouter constructs the chi.Router with InternHub defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(logger, params.Readiness))
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(params.Verifier, logger))
			r.Route("/users", func(r chi.Router) {
				if params.DocumentsHandler != nil {
					params.DocumentsHandler.MountRoutes(r)
				}
				if params.UsersHandler != nil {
					params.UsersHandler.MountRoutes(r)
				}
			})
			if params.BatchesHandler != nil {
				r.Route("/batches", params.BatchesHandler.MountRoutes)
			}
			if params.MessagesHandler != nil {
				r.Route("/messages", params.MessagesHandler.MountRoutes)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrNotFound, "Route not found"))
	})

	return r
}

func readiness(logger *slog.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("check", c.Name), slog.Any("error", err))
				status[c.Name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "ok"
		}
		httpx.JSON(w, code, status)
	}
}
