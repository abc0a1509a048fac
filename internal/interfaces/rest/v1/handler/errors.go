package handler

import (
	"github.com/gin-gonic/gin"

	"go-group-relay/internal/domain"
	"go-group-relay/internal/infrastructure/logger"
)

// respondError writes err as a structured JSON error and aborts the chain.
func respondError(c *gin.Context, log logger.Logger, err error) {
	structured := domain.AsError(err)
	if structured.Type == domain.TypeInternal {
		log.Errorf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		log.Warnf("Request %s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(structured.HTTPStatus(), structured.ToResponse())
}
