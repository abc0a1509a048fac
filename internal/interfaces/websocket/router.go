package websocket

import (
	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// InitWebSocketRouter initializes WebSocket routes
func InitWebSocketRouter(logger logger.Logger, hubInstance *hub.Hub, opts hub.ConnectionOptions, rg *gin.RouterGroup) {
	wsHandler := NewWebSocketHandler(hubInstance, opts, logger)

	// chat endpoint, one group per connection
	wsGroup := rg.Group("/ws")
	wsGroup.GET("/chat/:group_id", wsHandler.Connect)

	apiGroup := rg.Group("/api/v1/ws")
	apiGroup.GET("/connections", wsHandler.GetConnections)
}
