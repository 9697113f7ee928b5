package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/info-evry/astro-ndi-sub000/internal/platform/middleware"
	"github.com/info-evry/astro-ndi-sub000/internal/reset"
	"github.com/info-evry/astro-ndi-sub000/internal/transport/http/shared"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
)

// Service defines the reset operations the HTTP layer consumes.
type Service interface {
	CheckSafety(ctx context.Context) (reset.SafetyReport, error)
	Reset(ctx context.Context, req reset.Request) (reset.Result, error)
}

// Handler exposes the reset-safety check and the gated reset.
type Handler struct {
	resets Service
	logger *slog.Logger
}

func New(resets Service, logger *slog.Logger) *Handler {
	return &Handler{resets: resets, logger: logger}
}

// Register mounts the reset routes on the (already gated) admin router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reset/safety", h.handleSafety)
	r.Post("/reset", h.handleReset)
}

func (h *Handler) handleSafety(w http.ResponseWriter, r *http.Request) {
	report, err := h.resets.CheckSafety(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reset.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.resets.Reset(ctx, req)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "reset failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	// A warning result is a deliberate two-step confirmation, not a failure;
	// 200 with performed=false tells the caller to decide.
	shared.WriteJSON(w, http.StatusOK, result)
}
