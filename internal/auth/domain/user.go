package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Never return password in JSON
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider"` // "email", "google" or "imap"

	// Mailbox credentials. Gmail tokens for Google accounts, server
	// details and app password for IMAP accounts.
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	IMAPHost     string `json:"-"`
	SMTPHost     string `json:"-"`
	IMAPPassword string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
