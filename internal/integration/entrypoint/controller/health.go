package controller

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func() bool

// HealthController reports the state of the database and, when configured, Redis.
type HealthController struct {
	names  []string
	checks map[string]HealthChecker
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Timestamp    string            `json:"timestamp"`
}

// NewHealthController creates a new health controller instance.
func NewHealthController(checks map[string]HealthChecker) *HealthController {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return &HealthController{names: names, checks: checks}
}

// Check answers 503 with status "degraded" as soon as one dependency is down.
func (h *HealthController) Check(c *gin.Context) {
	deps := make(map[string]string, len(h.names))
	healthy := true
	for _, name := range h.names {
		state := "connected"
		if check := h.checks[name]; check == nil || !check() {
			state, healthy = "disconnected", false
		}
		deps[name] = state
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:       status,
		Dependencies: deps,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}
