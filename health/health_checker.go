// Package health provides health checking functionality for the report analysis API.
package health

import (
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/giygas/hireshawk-api/interfaces"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// staleAfterIntervals is how many probe intervals may pass without a probe
	staleAfterIntervals = 3
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store         interfaces.HistoryStore
	probeInterval time.Duration
	now           func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(store interfaces.HistoryStore, probeInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:         store,
		probeInterval: probeInterval,
		now:           time.Now,
	}
}

// HealthCheck derives the service status from the last dependency probes.
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	statuses := h.store.DependencyStatuses()

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	up := 0
	var lastProbe time.Time
	dependencies := make(map[string]any, len(statuses))
	for _, name := range names {
		s := statuses[name]
		if s.Healthy {
			up++
		}
		if s.CheckedAt.After(lastProbe) {
			lastProbe = s.CheckedAt
		}

		dep := map[string]any{
			"healthy":    s.Healthy,
			"checked_at": s.CheckedAt.Format(time.RFC3339),
			"latency_ms": s.Latency.Milliseconds(),
		}
		if s.Error != "" {
			dep["error"] = s.Error
		}
		dependencies[name] = dep
	}

	stale := h.probeInterval > 0 && !lastProbe.IsZero() &&
		now.Sub(lastProbe) > staleAfterIntervals*h.probeInterval

	switch {
	case up == 0 || stale:
		status = StatusUnhealthy
		httpStatus = http.StatusServiceUnavailable

	case up < len(statuses):
		status = StatusDegraded
		httpStatus = http.StatusOK

	default:
		status = StatusHealthy
		httpStatus = http.StatusOK
	}

	uptime := now.Sub(h.store.GetServerStartTime())
	data = map[string]any{
		"uptime_seconds":  math.Round(uptime.Seconds()),
		"history_entries": h.store.Count(),
		"dependencies":    dependencies,
	}
	if !lastProbe.IsZero() {
		data["last_probe"] = lastProbe.Format(time.RFC3339)
	}

	return status, data, httpStatus
}
