package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
)

// WebSocketHandler admits chat members over WebSocket and relays what they send
type WebSocketHandler struct {
	hub      *hub.Hub
	logger   logger.Logger
	opts     hub.ConnectionOptions
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler instance
func NewWebSocketHandler(hubInstance *hub.Hub, opts hub.ConnectionOptions, logger logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "websocket"),
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the chat frontend has a fixed host
				return true
			},
		},
	}
}

// Connect upgrades the request, joins the client to its group and relays
// every text frame it sends to the whole group until it disconnects.
func (h *WebSocketHandler) Connect(c *gin.Context) {
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

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Failed to upgrade connection: %v", err)
		return
	}

	conn := hub.NewWebSocketConnection(hub.NewConnectionID("ws"), groupID, ws, h.opts, h.relayTo(groupID), h.logger)

	if err := h.hub.Join(groupID, conn); err != nil {
		h.logger.Errorf("Failed to join group %s: %v", groupID, err)
		_ = conn.Close()
		return
	}
	defer h.leave(groupID, conn)

	h.logger.Infof("WebSocket connection %s joined group %s", conn.ID(), groupID)
	if err := conn.Send(conn.Context(), hub.ConnectedMessage(groupID, conn.ID())); err != nil {
		h.logger.Warnf("Failed to greet connection %s: %v", conn.ID(), err)
	}

	conn.ReadPump()
}

// relayTo broadcasts each inbound text frame to groupID, sender included.
func (h *WebSocketHandler) relayTo(groupID string) hub.InboundHandler {
	return func(ctx context.Context, conn hub.Connection, payload string) {
		report := h.hub.PublishText(ctx, groupID, payload)
		if !report.OK() {
			h.logger.Warnf("Message from %s reached %d/%d members of %s",
				conn.ID(), report.Delivered, report.Attempted, groupID)
		}
	}
}

func (h *WebSocketHandler) leave(groupID string, conn *hub.WebSocketConnection) {
	h.hub.Leave(groupID, conn)
	_ = conn.Close()
	h.logger.Infof("WebSocket connection %s left group %s", conn.ID(), groupID)

	if h.hub.IsRunning() {
		h.hub.Publish(context.Background(), groupID, hub.SystemMessage(groupID, hub.LeftChatNotice))
	}
}

// GetConnections lists the WebSocket members of every group
func (h *WebSocketHandler) GetConnections(c *gin.Context) {
	connectionInfo := make([]gin.H, 0)

	for _, group := range h.hub.Registry().Groups() {
		for _, conn := range h.hub.Registry().MembersOf(group.GroupID) {
			if conn.Type() != hub.ConnectionTypeWebSocket {
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
