package messages

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
)

// Handler serves messaging endpoints.
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

// MountRoutes registers messaging routes. Callers authenticate first.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/announcements", h.listAnnouncements)
	r.With(h.rbac.RequireRoles(rbac.MsgNotAnnouncer, rbac.Announcers...)).Post("/announcements", h.createAnnouncement)
	r.With(h.rbac.RequireAdmin()).Post("/announcements/{id}/pin", h.togglePin)
	r.Post("/announcements/{id}/view", h.view)

	r.Get("/", h.inbox)
	r.Post("/", h.send)
	r.Post("/{id}/read", h.markRead)
}

func (h *Handler) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	items, err := h.service.Announcements(r.Context(), p, q.Get("type"), q.Get("q"))
	if err != nil {
		h.fail(w, "list announcements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in AnnouncementInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Invalid announcement"))
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	a, err := h.service.Announce(r.Context(), p, in)
	if err != nil {
		h.fail(w, "create announcement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) togglePin(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	pinned, err := h.service.TogglePin(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "toggle pin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"pinned": pinned})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	views, err := h.service.View(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "view announcement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"views": views})
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	items, err := h.service.Inbox(r.Context(), p)
	if err != nil {
		h.fail(w, "list messages", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var in MessageInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Invalid message"))
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	m, err := h.service.Send(r.Context(), p, in)
	if err != nil {
		h.fail(w, "send message", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "mark read", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Message marked as read")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusOf(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
