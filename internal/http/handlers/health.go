package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/invest-be/internal/http/respond"
)

// Check is a named dependency check reported by the health endpoint.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler returns uptime and dependency status.
type HealthHandler struct {
	startedAt time.Time
	checks    []Check
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, checks ...Check) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, checks: checks}
}

// Register wires the handler into the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			deps[c.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[c.Name] = "ok"
	}
	respond.JSON(w, code, status, map[string]any{
		"status":       status,
		"uptime":       time.Since(h.startedAt).Truncate(time.Second).String(),
		"dependencies": deps,
	})
}
