package usecase

import (
	"time"

	chatdomain "mailchat-backend/internal/chat/domain"

	"github.com/google/uuid"
)

// createResponse builds the uniform chat envelope. Emails and actions are
// never nil so clients always see JSON arrays.
func createResponse(content string, emails []chatdomain.DisplayEmail, actions []chatdomain.Action) *chatdomain.ChatResponse {
	if emails == nil {
		emails = []chatdomain.DisplayEmail{}
	}
	if actions == nil {
		actions = []chatdomain.Action{}
	}
	return &chatdomain.ChatResponse{
		ID:        uuid.New().String(),
		Content:   content,
		Emails:    emails,
		Actions:   actions,
		Timestamp: time.Now().UTC(),
	}
}
