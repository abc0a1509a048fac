package sse

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
)

type ServerSentEventHandler struct {
	hub    *hub.Hub
	logger logger.Logger
	opts   hub.ConnectionOptions
}

func NewServerSentEventHandler(hubInstance *hub.Hub, opts hub.ConnectionOptions, logger logger.Logger) *ServerSentEventHandler {
	return &ServerSentEventHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "sse"),
		opts:   opts,
	}
}

// Connect streams a group's broadcasts to a receive-only member
func (h *ServerSentEventHandler) Connect(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("group_id"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id is required"})
		return
	}

	if !h.hub.IsRunning() {
		h.logger.Error("Hub is not running")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
		return
	}

	conn := hub.NewSSEConnection(c.Request.Context(), hub.NewConnectionID("sse"), groupID, c.Writer, h.opts, h.logger)

	if err := h.hub.Join(groupID, conn); err != nil {
		h.logger.Errorf("Failed to join group %s: %v", groupID, err)
		_ = conn.Close()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
		return
	}
	defer h.hub.Leave(groupID, conn)

	h.logger.Infof("SSE connection %s joined group %s", conn.ID(), groupID)
	c.Status(http.StatusOK)
	if err := conn.Send(c.Request.Context(), hub.ConnectedMessage(groupID, conn.ID())); err != nil {
		h.logger.Warnf("Failed to greet connection %s: %v", conn.ID(), err)
	}

	conn.Serve()
	h.logger.Infof("SSE connection %s left group %s", conn.ID(), groupID)
}

// GetConnections lists the SSE members of every group
func (h *ServerSentEventHandler) GetConnections(c *gin.Context) {
	connectionInfo := make([]gin.H, 0)

	for _, group := range h.hub.Registry().Groups() {
		for _, conn := range h.hub.Registry().MembersOf(group.GroupID) {
			if conn.Type() != hub.ConnectionTypeSSE {
				continue
			}
			connectionInfo = append(connectionInfo, gin.H{
				"id":       conn.ID(),
				"type":     conn.Type(),
				"group_id": group.GroupID,
				"closed":   conn.IsClosed(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_connections": len(connectionInfo),
		"connections":       connectionInfo,
		"hub_running":       h.hub.IsRunning(),
	})
}
