package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-group-relay/internal/domain"
	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
)

type ChatHandler struct {
	hub    *hub.Hub
	logger logger.Logger
}

type ChatMessageRequest struct {
	Username string `json:"username"`
	Message  string `json:"message" binding:"required"`
}

func NewChatHandler(hubInstance *hub.Hub, logger logger.Logger) *ChatHandler {
	return &ChatHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "chat"),
	}
}

// SendMessage relays an HTTP-submitted message to every member of the group.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("group_id"))
	if groupID == "" {
		respondError(c, h.logger, domain.ValidationError("group_id is required"))
		return
	}

	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ValidationError("Invalid message format").WithField("detail", err.Error()))
		return
	}

	if !h.hub.IsRunning() {
		respondError(c, h.logger, domain.UnavailableError("Service temporarily unavailable", hub.ErrHubNotRunning))
		return
	}

	message := hub.ChatMessage(groupID, req.Message)
	if req.Username != "" {
		message.Headers["username"] = req.Username
	}

	report := h.hub.Publish(c.Request.Context(), groupID, message)

	h.logger.Infof("Chat message %s sent to group %s: %d/%d delivered", report.MessageID, groupID, report.Delivered, report.Attempted)

	c.JSON(http.StatusOK, gin.H{
		"status":     "sent",
		"group_id":   groupID,
		"message_id": report.MessageID,
		"attempted":  report.Attempted,
		"delivered":  report.Delivered,
		"failed":     len(report.Failures),
	})
}
