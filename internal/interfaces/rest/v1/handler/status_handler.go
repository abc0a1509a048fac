package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-group-relay/internal/infrastructure/hub"
)

type StatusHandler struct {
	hub *hub.Hub
}

func NewStatusHandler(hubInstance *hub.Hub) *StatusHandler {
	return &StatusHandler{hub: hubInstance}
}

func (h *StatusHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the ChitChat API"})
}

// HubStatus reports whether the hub runs and how many members it tracks.
func (h *StatusHandler) HubStatus(c *gin.Context) {
	status := http.StatusOK
	health := "healthy"
	if !h.hub.IsRunning() {
		status = http.StatusServiceUnavailable
		health = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":      health,
		"hub_running": h.hub.IsRunning(),
		"groups":      h.hub.GroupCount(),
		"connections": h.hub.ConnectionCount(),
	})
}

// Groups lists every group and its member count.
func (h *StatusHandler) Groups(c *gin.Context) {
	groups := h.hub.Registry().Groups()
	c.JSON(http.StatusOK, gin.H{
		"total_groups": len(groups),
		"groups":       groups,
	})
}
