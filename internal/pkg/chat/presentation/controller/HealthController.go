package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports whether the store and the cache answer.
type HealthController struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		status := http.StatusOK
		components := make(gin.H, len(h.checks))
		for name, p := range h.checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = err.Error()
				continue
			}
			components[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "components": components})
	}
}
