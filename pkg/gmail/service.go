package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	emaildomain "mailchat-backend/internal/email/domain"
)

// Service talks to the Gmail API on behalf of a signed-in user.
type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// notifyTokenSource wraps an oauth2.TokenSource and invokes a callback
// whenever the access token changes, so refreshed tokens get persisted.
type notifyTokenSource struct {
	src      oauth2.TokenSource
	lastTok  string
	onChange emaildomain.TokenUpdateFunc
}

func (n *notifyTokenSource) Token() (*oauth2.Token, error) {
	tok, err := n.src.Token()
	if err != nil {
		return nil, err
	}
	if n.onChange != nil && tok.AccessToken != n.lastTok {
		n.lastTok = tok.AccessToken
		if err := n.onChange(tok); err != nil {
			log.Printf("[WARN] failed to persist refreshed token: %v", err)
		}
	}
	return tok, nil
}

func (s *Service) getService(ctx context.Context, creds *emaildomain.Credentials) (*gmail.Service, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}

	// Expiry is unknown once the token comes back out of the database, so
	// mark it expired and let the token source refresh when needed.
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}

	src := &notifyTokenSource{
		src:      oauthConfig.TokenSource(ctx, token),
		lastTok:  creds.AccessToken,
		onChange: creds.OnTokenRefresh,
	}

	srv, err := gmail.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// FetchEmails lists the user's most recent messages, optionally filtered
// by a Gmail search query. Results keep the provider's ordering.
func (s *Service) FetchEmails(ctx context.Context, creds *emaildomain.Credentials, maxResults int, query string) ([]*emaildomain.Email, error) {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return nil, err
	}

	call := srv.Users.Messages.List("me").MaxResults(int64(maxResults))
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %v", err)
	}

	emails := make([]*emaildomain.Email, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := srv.Users.Messages.Get("me", m.Id).Format("full").Do()
		if err != nil {
			log.Printf("[WARN] unable to fetch message %s: %v", m.Id, err)
			continue
		}
		emails = append(emails, convertMessage(msg))
	}
	return emails, nil
}

// GetEmailByID fetches a single message. Returns (nil, nil) when the
// message does not exist.
func (s *Service) GetEmailByID(ctx context.Context, creds *emaildomain.Credentials, id string) (*emaildomain.Email, error) {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", id).Format("full").Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to get message: %v", err)
	}
	return convertMessage(msg), nil
}

// SearchEmails runs a Gmail search query.
func (s *Service) SearchEmails(ctx context.Context, creds *emaildomain.Credentials, query string, maxResults int) ([]*emaildomain.Email, error) {
	return s.FetchEmails(ctx, creds, maxResults, query)
}

// SendEmail sends a new message, optionally within an existing thread.
func (s *Service) SendEmail(ctx context.Context, creds *emaildomain.Credentials, to, subject, body, threadID string) (*emaildomain.SentMessage, error) {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return nil, err
	}

	raw := buildRawMessage(to, subject, body, "", "")
	msg := &gmail.Message{Raw: raw}
	if threadID != "" {
		msg.ThreadId = threadID
	}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to send message: %v", err)
	}
	return &emaildomain.SentMessage{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// SendReply sends a reply to the sender of an existing message, in the
// same thread.
func (s *Service) SendReply(ctx context.Context, creds *emaildomain.Credentials, originalID, body string) (*emaildomain.SentMessage, error) {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return nil, err
	}

	original, err := srv.Users.Messages.Get("me", originalID).Format("metadata").MetadataHeaders("Subject", "From", "Message-ID").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get original message: %v", err)
	}

	subject := getHeader(original.Payload, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	to := getHeader(original.Payload, "From")
	messageID := getHeader(original.Payload, "Message-ID")

	raw := buildRawMessage(to, subject, body, messageID, messageID)
	msg := &gmail.Message{Raw: raw, ThreadId: original.ThreadId}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to send reply: %v", err)
	}
	return &emaildomain.SentMessage{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// DeleteEmail permanently deletes a message (not just trash).
func (s *Service) DeleteEmail(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return err
	}
	if err := srv.Users.Messages.Delete("me", id).Do(); err != nil {
		return fmt.Errorf("unable to delete message: %v", err)
	}
	return nil
}

// MarkAsRead removes the UNREAD label.
func (s *Service) MarkAsRead(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return err
	}
	mod := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	if _, err := srv.Users.Messages.Modify("me", id, mod).Do(); err != nil {
		return fmt.Errorf("unable to mark message as read: %v", err)
	}
	return nil
}

// MarkAsUnread adds the UNREAD label.
func (s *Service) MarkAsUnread(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	srv, err := s.getService(ctx, creds)
	if err != nil {
		return err
	}
	mod := &gmail.ModifyMessageRequest{AddLabelIds: []string{"UNREAD"}}
	if _, err := srv.Users.Messages.Modify("me", id, mod).Do(); err != nil {
		return fmt.Errorf("unable to mark message as unread: %v", err)
	}
	return nil
}

func buildRawMessage(to, subject, body, inReplyTo, references string) string {
	var sb strings.Builder
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", subject) + "\r\n")
	if inReplyTo != "" {
		sb.WriteString("In-Reply-To: " + inReplyTo + "\r\n")
	}
	if references != "" {
		sb.WriteString("References: " + references + "\r\n")
	}
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}

func convertMessage(msg *gmail.Message) *emaildomain.Email {
	sender := getHeader(msg.Payload, "From")
	name, addr := parseSender(sender)

	body := getEmailBody(msg.Payload)
	if body == "" {
		body = msg.Snippet
	}

	return &emaildomain.Email{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		Subject:     getHeader(msg.Payload, "Subject"),
		Sender:      sender,
		SenderName:  name,
		SenderEmail: addr,
		To:          getHeader(msg.Payload, "To"),
		Date:        getHeader(msg.Payload, "Date"),
		Body:        body,
		Snippet:     msg.Snippet,
		Labels:      msg.LabelIds,
		Unread:      hasLabel(msg, "UNREAD"),
	}
}

func getHeader(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

var senderPattern = regexp.MustCompile(`(.+?)\s*<(.+?)>`)

// parseSender splits a From header into display name and address.
// "John Doe <john@example.com>" gives ("John Doe", "john@example.com");
// a bare address gives ("", address).
func parseSender(from string) (string, string) {
	if m := senderPattern.FindStringSubmatch(from); m != nil {
		name := strings.Trim(strings.TrimSpace(m[1]), `"`)
		return name, strings.TrimSpace(m[2])
	}
	return "", strings.TrimSpace(from)
}

// getEmailBody extracts the message text, preferring text/plain over
// stripped-down text/html.
func getEmailBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			text := string(decoded)
			if payload.MimeType == "text/html" {
				return stripHTML(text)
			}
			return text
		}
	}

	var htmlBody string
	for _, part := range payload.Parts {
		switch part.MimeType {
		case "text/plain":
			if part.Body != nil && part.Body.Data != "" {
				if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
					return string(decoded)
				}
			}
		case "text/html":
			if part.Body != nil && part.Body.Data != "" {
				if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
					htmlBody = stripHTML(string(decoded))
				}
			}
		default:
			if nested := getEmailBody(part); nested != "" {
				return nested
			}
		}
	}
	return htmlBody
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

func stripHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}
