package routes

import (
	"github.com/gin-gonic/gin"

	handlers "rideshare/internal/handlers/shared"
)

// SetupChatRoutes sets up routes for rider/driver chat
func SetupChatRoutes(r *gin.RouterGroup, chatHandler *handlers.ChatHandler, authMiddleware gin.HandlerFunc) {
	chats := r.Group("/chats")
	chats.Use(authMiddleware)
	{
		chats.GET("", chatHandler.GetChats)
		chats.POST("", chatHandler.StartChat)
		chats.GET("/:id/messages", chatHandler.GetMessages)
		chats.POST("/:id/messages", chatHandler.SendMessage)
		chats.PUT("/:id/read", chatHandler.MarkRead)
	}
}
