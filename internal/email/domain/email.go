package domain

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is invoked when a provider refreshes an OAuth token so the
// caller can persist the rotated credentials.
type TokenUpdateFunc func(token *oauth2.Token) error

// Email is the provider-native message record. It is produced by a
// MailProvider and only read by the rest of the system.
type Email struct {
	ID          string   `json:"id"`
	ThreadID    string   `json:"thread_id"`
	Subject     string   `json:"subject"`
	Sender      string   `json:"sender"` // raw From header
	SenderName  string   `json:"sender_name"`
	SenderEmail string   `json:"sender_email"`
	To          string   `json:"to"`
	Date        string   `json:"date"` // raw Date header
	Body        string   `json:"body"`
	Snippet     string   `json:"snippet"`
	Labels      []string `json:"labels"`
	Unread      bool     `json:"unread"`
}

// SentMessage identifies a message accepted by the provider for delivery.
type SentMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}

// Credentials carries per-request mailbox credentials. The auth layer attaches
// them; providers consume whichever fields apply to their transport.
type Credentials struct {
	Provider     string // "google" or "imap"
	AccessToken  string
	RefreshToken string

	// IMAP account fields
	IMAPHost string // host:port, e.g. "imap.example.com:993"
	SMTPHost string // host:port, e.g. "smtp.example.com:465"
	Username string
	Password string

	OnTokenRefresh TokenUpdateFunc
}

// MailProvider is the mailbox capability consumed by the chat core. Query
// syntax: "from:<addr>", "subject:<term>", "is:unread", "after:<date>",
// space-joined conjunctions.
type MailProvider interface {
	FetchEmails(ctx context.Context, creds *Credentials, maxResults int, query string) ([]*Email, error)
	// GetEmailByID returns (nil, nil) when the message does not exist.
	GetEmailByID(ctx context.Context, creds *Credentials, id string) (*Email, error)
	SearchEmails(ctx context.Context, creds *Credentials, query string, maxResults int) ([]*Email, error)
	SendEmail(ctx context.Context, creds *Credentials, to, subject, body, threadID string) (*SentMessage, error)
	// SendReply answers an existing message, prefixing "Re:" when missing and
	// preserving the original thread.
	SendReply(ctx context.Context, creds *Credentials, originalID, body string) (*SentMessage, error)
	DeleteEmail(ctx context.Context, creds *Credentials, id string) error
	MarkAsRead(ctx context.Context, creds *Credentials, id string) error
	MarkAsUnread(ctx context.Context, creds *Credentials, id string) error
}
