// Package health serves the liveness/readiness endpoint backed by pluggable
// dependency checks.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"holly/pkg/platform/httputil"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

// Handler aggregates dependency checks into GET /healthz.
type Handler struct {
	logger *slog.Logger
	checks []namedCheck
}

func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Add registers a named dependency check.
func (h *Handler) Add(name string, check Check) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// ServeHTTP reports 200 when every dependency check passes, 503 otherwise.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "component", c.name, "error", err.Error())
			components[c.name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[c.name] = "ok"
	}

	body := map[string]any{"status": "ok", "components": components}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	httputil.WriteJSON(w, status, body)
}
