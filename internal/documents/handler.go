package documents

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
)

// DefaultMaxUpload bounds a single uploaded file.
const DefaultMaxUpload int64 = 10 << 20

const (
	formField         = "file"
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 10
)

// Handler serves upload and document store endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	maxUpload int64
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, maxUpload int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{logger: logger, service: service, rbac: rbac, maxUpload: maxUpload}
}

// MountRoutes registers document routes under the users prefix. Callers
// authenticate first.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireRoles(rbac.MsgInternUpload, rbac.Uploaders...)).Post("/upload", h.upload)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Get("/documents", h.list)
		r.Delete("/documents/{id}", h.delete)
		r.Get("/download/{filename}", h.download)
	})
}

type uploadResponse struct {
	Msg      string   `json:"msg"`
	Document Document `json:"document"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "File too large"))
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "No file uploaded"))
		default:
			httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Invalid upload"))
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	header, err := singleFile(r.MultipartForm)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if header.Size > h.maxUpload {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "File too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(w, "open upload", err)
		return
	}
	defer file.Close()

	uploader, _ := shared.PrincipalFromContext(r.Context())
	doc, err := h.service.Ingest(r.Context(), uploader, Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file)
	if err != nil {
		h.fail(w, "ingest document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, uploadResponse{Msg: "File uploaded successfully", Document: doc})
}

// singleFile returns the only file part, which must be named "file".
func singleFile(form *multipart.Form) (*multipart.FileHeader, error) {
	total := 0
	for _, headers := range form.File {
		total += len(headers)
	}
	files := form.File[formField]
	switch {
	case total > 1:
		return nil, httpx.Errorf(httpx.ErrValidation, "Only one file may be uploaded")
	case len(files) == 0:
		return nil, httpx.Errorf(httpx.ErrValidation, "No file uploaded")
	}
	return files[0], nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete document", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Document deleted successfully")
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	rc, dl, err := h.service.Open(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		h.fail(w, "download document", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(dl.Name))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream document", slog.String("filename", dl.Name), slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusOf(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
