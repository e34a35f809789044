package usecase

import (
	"net/mail"
	"regexp"
	"time"

	chatdomain "mailchat-backend/internal/chat/domain"
	emaildomain "mailchat-backend/internal/email/domain"
)

var angleAddrPattern = regexp.MustCompile(`<(.+?)>`)

// formatEmailForDisplay normalizes a raw provider email into the display
// shape used in chat responses.
func formatEmailForDisplay(email *emaildomain.Email) chatdomain.DisplayEmail {
	senderName := email.SenderName
	if senderName == "" {
		senderName = email.Sender
	}
	if senderName == "" {
		senderName = "Unknown"
	}

	senderEmail := email.SenderEmail
	if senderEmail == "" {
		senderEmail = email.Sender
	}
	if m := angleAddrPattern.FindStringSubmatch(senderEmail); m != nil {
		senderEmail = m[1]
	}

	subject := email.Subject
	if subject == "" {
		subject = "No Subject"
	}

	// Timestamp only when the raw date header parses
	timestamp := ""
	if email.Date != "" {
		if t, err := mail.ParseDate(email.Date); err == nil {
			timestamp = t.Format(time.RFC3339)
		}
	}

	return chatdomain.DisplayEmail{
		ID:      email.ID,
		Subject: subject,
		Sender: chatdomain.EmailSender{
			Name:  senderName,
			Email: senderEmail,
		},
		Date:      email.Date,
		Timestamp: timestamp,
		Snippet:   email.Snippet,
		IsRead:    !email.Unread,
	}
}
