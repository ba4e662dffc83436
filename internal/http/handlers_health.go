package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const healthResponse = `{"status":"ok"}`

// healthHandler answers liveness probes; it never touches dependencies.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		return
	}
}

// ReadinessCheck pings one dependency.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandlers serves readiness probes over the configured checks.
type HealthHandlers struct {
	Checks  []ReadinessCheck
	Timeout time.Duration
	Logger  *slog.Logger
}

// Ready runs every check and reports 503 when any fails.
// GET /readyz.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.Checks))
	for _, c := range h.Checks {
		if err := c.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[c.Name] = "unavailable"
			if h.Logger != nil {
				h.Logger.WarnContext(ctx, "readiness check failed", slog.String("check", c.Name), slog.Any("error", err))
			}
			continue
		}
		checks[c.Name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	WriteJSON(w, status, map[string]any{"status": overall, "checks": checks})
}
