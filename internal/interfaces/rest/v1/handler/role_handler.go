package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-group-relay/internal/domain"
	"go-group-relay/internal/infrastructure/logger"
	"go-group-relay/internal/port/inbound"
)

type RoleHandler struct {
	roles  inbound.RoleUseCase
	logger logger.Logger
}

func NewRoleHandler(roles inbound.RoleUseCase, logger logger.Logger) *RoleHandler {
	return &RoleHandler{
		roles:  roles,
		logger: logger.WithField("handler", "role"),
	}
}

// AssignRole assigns a role to a group member and notifies the group.
func (h *RoleHandler) AssignRole(c *gin.Context) {
	var assignment domain.RoleAssignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		respondError(c, h.logger, domain.ValidationError("Invalid role assignment").WithField("detail", err.Error()))
		return
	}

	result, err := h.roles.AssignRole(c.Request.Context(), c.Param("group_id"), assignment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    result.Summary(),
		"group_id":   result.GroupID,
		"notified":   result.Notified,
		"message_id": result.MessageID,
	})
}
