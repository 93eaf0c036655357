// Package handler exposes the review cycle trigger endpoint. The engine holds
// no internal timer; an external scheduler POSTs here to run one cycle.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"holly/internal/platform/metrics"
	"holly/internal/platform/middleware"
	"holly/internal/review"
	dErrors "holly/pkg/domain-errors"
	"holly/pkg/platform/httputil"
	"holly/pkg/requestcontext"
)

// Cycler runs one review cycle over all due leads.
type Cycler interface {
	RunCycle(ctx context.Context, now time.Time) (*review.CycleReport, error)
}

// Handler handles the review trigger endpoint.
type Handler struct {
	runner        Cycler
	logger        *slog.Logger
	metrics       *metrics.Metrics
	triggerSecret string
}

// New creates a new review Handler.
func New(runner Cycler, logger *slog.Logger, m *metrics.Metrics, triggerSecret string) *Handler {
	return &Handler{
		runner:        runner,
		logger:        logger,
		metrics:       m,
		triggerSecret: triggerSecret,
	}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.RequestTime)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Latency(h.metrics))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.RequireSharedSecret(h.triggerSecret, h.logger))
		gr.Post("/review/run", h.handleRunCycle)
	})
}

// handleRunCycle executes one full review cycle synchronously and returns the
// aggregate report. Concurrent triggers are safe: the per-lead claim ensures
// each lead is processed by exactly one invocation.
func (h *Handler) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	report, err := h.runner.RunCycle(ctx, now)
	if err != nil {
		h.logger.ErrorContext(ctx, "review cycle failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "review cycle failed", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
