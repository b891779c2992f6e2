package health

import (
	"context"
	"net/http"
	"time"

	"travel-crm/internal/api"
	"travel-crm/internal/logger"

	"github.com/gin-gonic/gin"
)

// DefaultTimeout bounds each dependency check
const DefaultTimeout = 2 * time.Second

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Pinger is a dependency that can report its own reachability
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Checker reports service health from a set of named dependencies
type Checker struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{deps: map[string]Pinger{}, timeout: timeout}
}

// Register adds a named dependency
func (h *Checker) Register(name string, dep Pinger) *Checker {
	h.deps[name] = dep
	return h
}

// Handler responds 200 when every dependency is reachable and 503 otherwise
func (h *Checker) Handler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	response := HealthResponse{Status: "ok", Checks: map[string]string{}}

	for name, dep := range h.deps {
		if err := dep.HealthCheck(ctx); err != nil {
			logger.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			response.Checks[name] = "unavailable"
			response.Status = "degraded"
			continue
		}
		response.Checks[name] = "ok"
	}

	if response.Status != "ok" {
		api.SendUnavailable(c, "One or more dependencies are unavailable", response)
		return
	}
	api.SendSuccess(c, http.StatusOK, response, nil)
}
