package batches

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
)

// Handler serves batch endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers batch routes. Callers authenticate first.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Delete("/{id}", h.remove)
	})
}

type createResponse struct {
	Msg   string `json:"msg"`
	Batch Batch  `json:"batch"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.ListBatches(r.Context())
	if err != nil {
		h.fail(w, "list batches", err)
		return
	}
	httpx.JSON(w, http.StatusOK, batches)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Batch name is required"))
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	batch, err := h.service.CreateBatch(r.Context(), actor, in)
	if err != nil {
		h.fail(w, "create batch", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createResponse{Msg: "Batch created successfully", Batch: batch})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.DeleteBatch(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete batch", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Batch deleted successfully")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusOf(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
