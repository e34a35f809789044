package usecase

import (
	"context"

	authdomain "mailchat-backend/internal/auth/domain"
	chatdomain "mailchat-backend/internal/chat/domain"
	chatdto "mailchat-backend/internal/chat/dto"
)

// ChatUsecase defines the interface for conversational mailbox operations
type ChatUsecase interface {
	ProcessMessage(ctx context.Context, user *authdomain.User, message string) (*chatdomain.ChatResponse, error)
	ProcessAction(ctx context.Context, user *authdomain.User, req *chatdto.ActionRequest) (*chatdomain.ChatResponse, error)
}
