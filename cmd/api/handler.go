package api

import (
	"log"

	authUsecase "mailchat-backend/internal/auth/usecase"
	chatUsecasePkg "mailchat-backend/internal/chat/usecase"
	"mailchat-backend/pkg/ai"
	"mailchat-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase authUsecase.AuthUsecase
	chatUsecase chatUsecasePkg.ChatUsecase
	config      *config.Config
}

// AIServiceSetter lets the handler hand the AI service to the chat
// usecase after runtime settings are wired up.
type AIServiceSetter interface {
	SetAIService(svc ai.CompletionService)
}

func NewHandler(authUc authUsecase.AuthUsecase, chatUc chatUsecasePkg.ChatUsecase, cfg *config.Config) *Handler {
	// Initialize runtime config for settings API
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	// Initialize AI service with dynamic config getters for runtime updates
	aiCfg := ai.DynamicConfig{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	}
	aiService := ai.NewCompletionServiceWithDynamicConfig(aiCfg)
	log.Printf("AI service initialized with provider: %s (dynamic config enabled)", cfg.AIProvider)

	if setter, ok := chatUc.(AIServiceSetter); ok {
		setter.SetAIService(aiService)
	}

	return &Handler{
		authUsecase: authUc,
		chatUsecase: chatUc,
		config:      cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.chatUsecase, h.config)

	return r.Run(addr)
}
