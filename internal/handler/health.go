package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe checks one dependency. A nil error means it is reachable.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler takes named readiness probes, e.g. "postgres", "redis".
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			body[name] = "unavailable"
			body["status"] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "connected"
	}
	c.JSON(status, body)
}
