// Package handler exposes the manual compliance surfaces: consent withdrawal,
// suppression, data deletion, and data export. These are admin-facing,
// machine-to-machine endpoints behind the shared secret.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"holly/internal/audit"
	"holly/internal/compliance"
	"holly/internal/lead"
	"holly/internal/platform/metrics"
	"holly/internal/platform/middleware"
	id "holly/pkg/domain"
	dErrors "holly/pkg/domain-errors"
	"holly/pkg/platform/httputil"
	"holly/pkg/platform/sentinel"
	"holly/pkg/requestcontext"
)

// Handler handles compliance and data-subject endpoints.
type Handler struct {
	gate    *compliance.Gate
	store   lead.Store
	audit   *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	secret  string
}

// New creates a new compliance Handler.
func New(
	gate *compliance.Gate,
	store lead.Store,
	auditPub *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	secret string,
) *Handler {
	return &Handler{
		gate:    gate,
		store:   store,
		audit:   auditPub,
		logger:  logger,
		metrics: m,
		secret:  secret,
	}
}

// Register registers the compliance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.RequestTime)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Latency(h.metrics))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.RequireSharedSecret(h.secret, h.logger))
		gr.Post("/compliance/withdraw", h.handleWithdraw)
		gr.Post("/compliance/suppress", h.handleSuppress)
		gr.Delete("/leads/{id}", h.handleDelete)
		gr.Get("/leads/{id}/export", h.handleExport)
	})
}

// handleWithdraw flips one channel consent off for a lead. Idempotent, so a
// repeated withdrawal still returns 204.
func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	leadID, err := id.ParseLeadID(req.LeadID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ch, err := id.ParseChannel(req.Channel)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.gate.Withdraw(ctx, leadID, ch, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "lead not found"))
			return
		}
		h.logger.ErrorContext(ctx, "consent withdrawal failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"channel", ch.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "consent withdrawal failed", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSuppress adds a destination to the organization suppression list.
func (h *Handler) handleSuppress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SuppressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.gate.Suppress(ctx, req.Destination); err != nil {
		h.logger.ErrorContext(ctx, "suppression add failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "suppression add failed", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDelete serves a data-deletion request: the lead and its entire
// history are removed, and the deletion itself is audited.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	leadID, err := id.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.store.Delete(ctx, leadID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "lead not found"))
			return
		}
		h.logger.ErrorContext(ctx, "lead deletion failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "lead deletion failed", err))
		return
	}

	if err := h.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		LeadID:    leadID,
		Action:    string(audit.EventLeadDeleted),
		RequestID: requestID,
	}); err != nil {
		h.logger.WarnContext(ctx, "deletion audit emit failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"error", err.Error(),
		)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves a data-export request: the lead record, its full
// history, and its audit trail as one JSON document.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	leadID, err := id.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	l, history, err := h.store.LoadWithHistory(ctx, leadID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "lead not found"))
			return
		}
		h.logger.ErrorContext(ctx, "lead export load failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "lead export failed", err))
		return
	}

	events, err := h.audit.List(ctx, leadID)
	if err != nil {
		h.logger.ErrorContext(ctx, "lead export audit load failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "lead export failed", err))
		return
	}

	if err := h.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		LeadID:    leadID,
		Action:    string(audit.EventLeadExported),
		RequestID: requestID,
	}); err != nil {
		h.logger.WarnContext(ctx, "export audit emit failed",
			"request_id", requestID,
			"lead_id", leadID.String(),
			"error", err.Error(),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, newExportResponse(l, history, events))
}
