package dto

import chatdomain "mailchat-backend/internal/chat/domain"

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type ActionRequest struct {
	Type    string                    `json:"type" binding:"required"`
	EmailID string                    `json:"emailId"`
	Payload *chatdomain.ActionPayload `json:"payload"`
}
