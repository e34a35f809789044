package usecase

import (
	"context"
	"errors"
	"strings"

	emaildomain "mailchat-backend/internal/email/domain"
	"mailchat-backend/pkg/config"
)

// fakeProvider is an in-memory MailProvider for handler tests.
type fakeProvider struct {
	emails    []*emaildomain.Email
	sendErr   error
	deleteErr error
	sentTo    []string
	deleted   []string
	marked    []string
}

func (f *fakeProvider) FetchEmails(ctx context.Context, creds *emaildomain.Credentials, maxResults int, query string) ([]*emaildomain.Email, error) {
	if maxResults > len(f.emails) {
		maxResults = len(f.emails)
	}
	return f.emails[:maxResults], nil
}

func (f *fakeProvider) GetEmailByID(ctx context.Context, creds *emaildomain.Credentials, id string) (*emaildomain.Email, error) {
	for _, email := range f.emails {
		if email.ID == id {
			return email, nil
		}
	}
	return nil, nil
}

func (f *fakeProvider) SearchEmails(ctx context.Context, creds *emaildomain.Credentials, query string, maxResults int) ([]*emaildomain.Email, error) {
	var results []*emaildomain.Email
	switch {
	case strings.HasPrefix(query, "from:"):
		sender := query[len("from:"):]
		for _, email := range f.emails {
			if strings.Contains(email.Sender, sender) {
				results = append(results, email)
			}
		}
	case strings.HasPrefix(query, "subject:"):
		keyword := strings.ToLower(query[len("subject:"):])
		for _, email := range f.emails {
			if strings.Contains(strings.ToLower(email.Subject), keyword) {
				results = append(results, email)
			}
		}
	case strings.HasPrefix(query, "after:"):
		results = f.emails
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (f *fakeProvider) SendEmail(ctx context.Context, creds *emaildomain.Credentials, to, subject, body, threadID string) (*emaildomain.SentMessage, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentTo = append(f.sentTo, to)
	return &emaildomain.SentMessage{ID: "sent-1"}, nil
}

func (f *fakeProvider) SendReply(ctx context.Context, creds *emaildomain.Credentials, originalID, body string) (*emaildomain.SentMessage, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentTo = append(f.sentTo, originalID)
	return &emaildomain.SentMessage{ID: "sent-1"}, nil
}

func (f *fakeProvider) DeleteEmail(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProvider) MarkAsRead(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeProvider) MarkAsUnread(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	return nil
}

// fakeAI returns canned completions keyed by a prompt substring. Falls
// back to an error when nothing matches.
type fakeAI struct {
	fn func(prompt string) (string, error)
}

func (f *fakeAI) Complete(ctx context.Context, prompt string) (string, error) {
	if f.fn == nil {
		return "", errors.New("model unavailable")
	}
	return f.fn(prompt)
}

func brokenAI() *fakeAI {
	return &fakeAI{}
}

func scriptedAI(script map[string]string) *fakeAI {
	return &fakeAI{fn: func(prompt string) (string, error) {
		for marker, response := range script {
			if strings.Contains(prompt, marker) {
				return response, nil
			}
		}
		return "", errors.New("no scripted response")
	}}
}

func testEmail(id, subject, sender, senderName, senderEmail, body string) *emaildomain.Email {
	return &emaildomain.Email{
		ID:          id,
		Subject:     subject,
		Sender:      sender,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		Date:        "Mon, 01 Jan 2024 10:00:00 +0000",
		Body:        body,
		Snippet:     body,
		Unread:      true,
	}
}

func newTestUsecase(provider *fakeProvider, svc *fakeAI) (*chatUsecase, *mailSession) {
	uc := NewChatUsecase(nil, provider, provider, &config.Config{})
	uc.SetAIService(svc)
	session := &mailSession{
		provider: provider,
		creds:    &emaildomain.Credentials{Provider: "imap"},
	}
	return uc, session
}
