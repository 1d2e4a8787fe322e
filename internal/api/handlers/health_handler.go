package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a backing store the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db           Pinger
	cache        Pinger
	wsClients    func() int
	emailEnabled bool
}

// NewHealthHandler builds the health check. cache and wsClients may be nil.
func NewHealthHandler(db, cache Pinger, wsClients func() int, emailEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, wsClients: wsClients, emailEnabled: emailEnabled}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"database":  "connected",
		"cache":     "disabled",
		"websocket": "active",
		"email":     "disabled",
	}

	if err := h.db.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = "unreachable"
	}
	if h.cache != nil {
		body["cache"] = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			body["cache"] = "unreachable"
		}
	}
	if h.wsClients != nil {
		body["ws_clients"] = h.wsClients()
	}
	if h.emailEnabled {
		body["email"] = "configured"
	}

	c.JSON(status, body)
}
