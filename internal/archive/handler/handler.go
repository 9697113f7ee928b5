package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/service"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/middleware"
	"github.com/info-evry/astro-ndi-sub000/internal/transport/http/shared"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
)

// Service defines the archive operations the HTTP layer consumes.
type Service interface {
	Create(ctx context.Context, year int) (archive.Summary, error)
	Get(ctx context.Context, year int) (*archive.Archive, error)
	List(ctx context.Context) ([]archive.Summary, error)
	Export(ctx context.Context, year int) (*service.ExportBundle, error)
	CheckAllExpirations(ctx context.Context) ([]service.ExpirationResult, error)
	CurrentYear(ctx context.Context) int
}

// Handler exposes the archival admin endpoints.
type Handler struct {
	archives Service
	logger   *slog.Logger
}

func New(archives Service, logger *slog.Logger) *Handler {
	return &Handler{archives: archives, logger: logger}
}

// Register mounts the archive routes on the (already gated) admin router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/archives", h.handleList)
	r.Post("/archives", h.handleCreate)
	r.Get("/archives/{year}", h.handleGet)
	r.Get("/archives/{year}/export", h.handleExport)
	r.Post("/archives/expiration-check", h.handleExpirationSweep)
	r.Get("/event-year", h.handleEventYear)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.archives.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"archives": summaries})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Body is optional: absent or zero year means "resolve the current one".
	var req struct {
		Year int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	summary, err := h.archives.Create(ctx, req.Year)
	if err != nil {
		h.logFailure(ctx, "archive creation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, summary)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	a, err := h.archives.Get(r.Context(), year)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	bundle, err := h.archives.Export(r.Context(), year)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bundle)
}

func (h *Handler) handleExpirationSweep(w http.ResponseWriter, r *http.Request) {
	results, err := h.archives.CheckAllExpirations(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "expiration sweep failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleEventYear(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]int{
		"event_year": h.archives.CurrentYear(r.Context()),
	})
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "year must be an integer"))
		return 0, false
	}
	return year, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
