package api

import (
	"net/http"

	"mailchat-backend/internal/auth/delivery"
	authUsecase "mailchat-backend/internal/auth/usecase"
	chatDelivery "mailchat-backend/internal/chat/delivery"
	chatUsecase "mailchat-backend/internal/chat/usecase"
	"mailchat-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, chatUc chatUsecase.ChatUsecase, cfg *config.Config) {
	authHandler := delivery.NewAuthHandler(authUc, cfg)
	chatHandler := chatDelivery.NewChatHandler(chatUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/imap", authHandler.IMAPLogin)
			auth.GET("/google", authHandler.GoogleAuth)
			auth.GET("/google/callback", authHandler.GoogleCallback)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
			auth.POST("/logout", authHandler.Logout)
		}

		// Chat routes (protected)
		chat := api.Group("/chat")
		chat.Use(delivery.AuthMiddleware(authUc))
		{
			chat.POST("/message", chatHandler.Message)
			chat.POST("/action", chatHandler.Action)
		}

		// Settings routes (protected)
		settings := api.Group("/settings")
		settings.Use(delivery.AuthMiddleware(authUc))
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
