package main

import (
	"log"

	api "mailchat-backend/cmd/api"
	authdomain "mailchat-backend/internal/auth/domain"
	authRepo "mailchat-backend/internal/auth/repository"
	authUsecase "mailchat-backend/internal/auth/usecase"
	chatUsecase "mailchat-backend/internal/chat/usecase"
	"mailchat-backend/pkg/config"
	"mailchat-backend/pkg/database"
	"mailchat-backend/pkg/gmail"
	"mailchat-backend/pkg/imap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)

	// Initialize mail providers
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imap.NewService()

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, imapService, cfg)
	chatUsecaseInstance := chatUsecase.NewChatUsecase(userRepo, gmailService, imapService, cfg)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, chatUsecaseInstance, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
