package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
	"go-group-relay/internal/interfaces/rest/v1/handler"
	"go-group-relay/internal/interfaces/sse"
	"go-group-relay/internal/interfaces/websocket"
	"go-group-relay/internal/port/inbound"
)

// RouterDeps is everything the HTTP surface is built from.
type RouterDeps struct {
	Hub         *hub.Hub
	Roles       inbound.RoleUseCase
	Connections hub.ConnectionOptions
	Metrics     http.Handler
	Logger      logger.Logger
}

func InitRouter(deps RouterDeps) http.Handler {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	rootGroup := router.Group("")

	statusHandler := handler.NewStatusHandler(deps.Hub)
	rootGroup.GET("/", statusHandler.Root)
	rootGroup.GET("/hub/status", statusHandler.HubStatus)

	if deps.Metrics != nil {
		rootGroup.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	roleHandler := handler.NewRoleHandler(deps.Roles, deps.Logger)
	rootGroup.POST("/groups/:group_id/members/assign-role", roleHandler.AssignRole)

	chatHandler := handler.NewChatHandler(deps.Hub, deps.Logger)
	apiGroup := rootGroup.Group("/api/v1")
	{
		apiGroup.GET("/groups", statusHandler.Groups)
		apiGroup.POST("/groups/:group_id/messages", chatHandler.SendMessage)
	}

	sse.InitSSERouter(deps.Logger, deps.Hub, deps.Connections, rootGroup)
	websocket.InitWebSocketRouter(deps.Logger, deps.Hub, deps.Connections, rootGroup)

	return router
}
