package sse

import (
	"github.com/gin-gonic/gin"

	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
)

func InitSSERouter(logger logger.Logger, hubInstance *hub.Hub, opts hub.ConnectionOptions, rg *gin.RouterGroup) {
	sseHandler := NewServerSentEventHandler(hubInstance, opts, logger)

	sseGroup := rg.Group("/sse")
	sseGroup.GET("/:group_id", SSEHeadersMiddleware(), sseHandler.Connect)

	apiGroup := rg.Group("/api/v1/sse")
	apiGroup.GET("/connections", sseHandler.GetConnections)
}
