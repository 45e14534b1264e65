package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

const checkTimeout = 2 * time.Second

// ConnCounter reports live push connections.
type ConnCounter interface{ Count() int }

// Check probes one dependency.
type Check func(ctx context.Context) error

type Handler struct {
	conns  ConnCounter
	checks map[string]Check
}

func NewHandler(conns ConnCounter, checks map[string]Check) *Handler {
	return &Handler{conns: conns, checks: checks}
}

// Health answers 503 with per-dependency detail when any check fails.
func (h *Handler) Health(c echo.Context) error {
	body := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if h.conns != nil {
		body["connections"] = h.conns.Count()
	}

	code := http.StatusOK
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				results[name] = "down"
				code = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			results[name] = "up"
		}
		body["checks"] = results
	}
	return c.JSON(code, body)
}
