package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	started time.Time
}

func NewHealthHandler(started time.Time) *HealthHandler {
	if started.IsZero() {
		started = time.Now()
	}
	return &HealthHandler{started: started}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Seconds(),
	})
}
