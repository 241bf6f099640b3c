package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	model string
	db    Pinger
}

// NewHealthHandler creates a new health handler. db may be nil when the
// caption archive is disabled.
func NewHealthHandler(model string, db Pinger) *HealthHandler {
	return &HealthHandler{model: model, db: db}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"model":  h.model,
	}

	if h.db == nil {
		resp["database"] = "disabled"
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp["database"] = "ok"
	c.JSON(http.StatusOK, resp)
}
