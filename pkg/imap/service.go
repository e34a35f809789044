// Package imap implements the mail provider over plain IMAP/SMTP with
// password auth, for accounts connected without OAuth.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	emaildomain "mailchat-backend/internal/email/domain"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func hostOnly(address string) string {
	if idx := strings.Index(address, ":"); idx >= 0 {
		return address[:idx]
	}
	return address
}

func connectIMAP(creds *emaildomain.Credentials) (*client.Client, error) {
	addr := creds.IMAPHost
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}
	c, err := client.DialTLS(addr, &tls.Config{ServerName: hostOnly(addr)})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to IMAP server: %v", err)
	}
	if err := c.Login(creds.Username, creds.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("IMAP login failed: %v", err)
	}
	return c, nil
}

func connectSMTP(creds *emaildomain.Credentials) (*smtp.Client, error) {
	addr := creds.SMTPHost
	if !strings.Contains(addr, ":") {
		addr += ":465"
	}
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: hostOnly(addr)})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to SMTP server: %v", err)
	}
	c := smtp.NewClient(conn)
	auth := sasl.NewPlainClient("", creds.Username, creds.Password)
	if err := c.Auth(auth); err != nil {
		c.Close()
		return nil, fmt.Errorf("SMTP auth failed: %v", err)
	}
	return c, nil
}

// ValidateCredentials checks that the IMAP server accepts the login.
func (s *Service) ValidateCredentials(ctx context.Context, creds *emaildomain.Credentials) error {
	c, err := connectIMAP(creds)
	if err != nil {
		return err
	}
	c.Logout()
	return nil
}

// buildSearchCriteria compiles a provider query string into IMAP search
// criteria. Supported tokens: from:, subject:, is:unread, after:, before:
// (dates as YYYY/MM/DD); remaining words match the message text.
func buildSearchCriteria(query string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()

	var free []string
	for _, token := range strings.Fields(query) {
		lower := strings.ToLower(token)
		switch {
		case strings.HasPrefix(lower, "from:"):
			criteria.Header.Add("From", token[len("from:"):])
		case strings.HasPrefix(lower, "subject:"):
			criteria.Header.Add("Subject", token[len("subject:"):])
		case lower == "is:unread":
			criteria.WithoutFlags = append(criteria.WithoutFlags, imap.SeenFlag)
		case lower == "is:read":
			criteria.WithFlags = append(criteria.WithFlags, imap.SeenFlag)
		case strings.HasPrefix(lower, "after:"):
			if t, err := time.Parse("2006/01/02", token[len("after:"):]); err == nil {
				criteria.Since = t
			}
		case strings.HasPrefix(lower, "before:"):
			if t, err := time.Parse("2006/01/02", token[len("before:"):]); err == nil {
				criteria.Before = t
			}
		default:
			free = append(free, token)
		}
	}
	if len(free) > 0 {
		criteria.Text = free
	}
	return criteria
}

// FetchEmails returns the newest matching messages from INBOX, most
// recent first.
func (s *Service) FetchEmails(ctx context.Context, creds *emaildomain.Credentials, maxResults int, query string) ([]*emaildomain.Email, error) {
	c, err := connectIMAP(creds)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %v", err)
	}

	uids, err := c.UidSearch(buildSearchCriteria(query))
	if err != nil {
		return nil, fmt.Errorf("IMAP search failed: %v", err)
	}
	if len(uids) == 0 {
		return []*emaildomain.Email{}, nil
	}

	// UIDs come back oldest first. Keep the newest maxResults.
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > maxResults {
		uids = uids[len(uids)-maxResults:]
	}

	emails, err := fetchByUIDs(c, uids)
	if err != nil {
		return nil, err
	}

	// Newest first, matching what users expect from an inbox listing.
	sort.Slice(emails, func(i, j int) bool {
		a, _ := strconv.ParseUint(emails[i].ID, 10, 32)
		b, _ := strconv.ParseUint(emails[j].ID, 10, 32)
		return a > b
	})
	return emails, nil
}

func fetchByUIDs(c *client.Client, uids []uint32) ([]*emaildomain.Email, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchFlags, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var emails []*emaildomain.Email
	for msg := range messages {
		emails = append(emails, convertMessage(msg, section))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("IMAP fetch failed: %v", err)
	}
	return emails, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) *emaildomain.Email {
	email := &emaildomain.Email{
		ID:     strconv.FormatUint(uint64(msg.Uid), 10),
		Unread: !hasFlag(msg.Flags, imap.SeenFlag),
	}

	if env := msg.Envelope; env != nil {
		email.Subject = env.Subject
		email.ThreadID = strings.TrimSpace(env.MessageId)
		if !env.Date.IsZero() {
			email.Date = env.Date.Format(time.RFC1123Z)
		}
		if len(env.From) > 0 && env.From[0] != nil {
			addr := env.From[0]
			email.SenderName = strings.TrimSpace(addr.PersonalName)
			email.SenderEmail = addr.Address()
			if email.SenderName != "" {
				email.Sender = email.SenderName + " <" + email.SenderEmail + ">"
			} else {
				email.Sender = email.SenderEmail
			}
		}
		if len(env.To) > 0 && env.To[0] != nil {
			email.To = env.To[0].Address()
		}
	}
	if email.Date == "" && !msg.InternalDate.IsZero() {
		email.Date = msg.InternalDate.Format(time.RFC1123Z)
	}

	if literal := msg.GetBody(section); literal != nil {
		email.Body = extractBody(literal)
	}
	email.Snippet = makeSnippet(email.Body)
	return email
}

// extractBody reads the first text part of the raw message.
func extractBody(r io.Reader) string {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return ""
	}

	var htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[WARN] failed to read message part: %v", err)
			break
		}
		if header, ok := part.Header.(*gomail.InlineHeader); ok {
			mediaType, _, _ := header.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			if mediaType == "text/plain" {
				return strings.TrimSpace(string(data))
			}
			if mediaType == "text/html" && htmlBody == "" {
				htmlBody = strings.TrimSpace(string(data))
			}
		}
	}
	return htmlBody
}

func makeSnippet(body string) string {
	snippet := strings.Join(strings.Fields(body), " ")
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return snippet
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// GetEmailByID fetches a single message by UID. Returns (nil, nil) when
// no message with that UID exists.
func (s *Service) GetEmailByID(ctx context.Context, creds *emaildomain.Credentials, id string) (*emaildomain.Email, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, nil
	}

	c, err := connectIMAP(creds)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %v", err)
	}

	emails, err := fetchByUIDs(c, []uint32{uint32(uid)})
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, nil
	}
	return emails[0], nil
}

// SearchEmails runs a query against INBOX.
func (s *Service) SearchEmails(ctx context.Context, creds *emaildomain.Credentials, query string, maxResults int) ([]*emaildomain.Email, error) {
	return s.FetchEmails(ctx, creds, maxResults, query)
}

func sendMessage(creds *emaildomain.Credentials, to, subject, body, inReplyTo string) (string, error) {
	messageID := "<" + uuid.New().String() + "@" + hostOnly(creds.SMTPHost) + ">"

	var sb strings.Builder
	sb.WriteString("From: " + creds.Username + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Message-ID: " + messageID + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	if inReplyTo != "" {
		sb.WriteString("In-Reply-To: " + inReplyTo + "\r\n")
		sb.WriteString("References: " + inReplyTo + "\r\n")
	}
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	c, err := connectSMTP(creds)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if err := c.Mail(creds.Username, nil); err != nil {
		return "", fmt.Errorf("SMTP MAIL failed: %v", err)
	}
	rcpt := to
	if _, addr := splitAddress(to); addr != "" {
		rcpt = addr
	}
	if err := c.Rcpt(rcpt, nil); err != nil {
		return "", fmt.Errorf("SMTP RCPT failed: %v", err)
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("SMTP DATA failed: %v", err)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		w.Close()
		return "", fmt.Errorf("unable to write message: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("unable to finish message: %v", err)
	}
	if err := c.Quit(); err != nil {
		log.Printf("[WARN] SMTP quit failed: %v", err)
	}
	return messageID, nil
}

// splitAddress pulls the bare address out of "Name <addr>" forms.
func splitAddress(from string) (string, string) {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[:start]), strings.TrimSpace(from[start+1 : end])
	}
	return "", strings.TrimSpace(from)
}

// SendEmail sends a new message over SMTP. threadID carries the
// Message-ID being continued, when there is one.
func (s *Service) SendEmail(ctx context.Context, creds *emaildomain.Credentials, to, subject, body, threadID string) (*emaildomain.SentMessage, error) {
	messageID, err := sendMessage(creds, to, subject, body, threadID)
	if err != nil {
		return nil, err
	}
	return &emaildomain.SentMessage{ID: messageID, ThreadID: threadID}, nil
}

// SendReply replies to the sender of an existing message in-thread.
func (s *Service) SendReply(ctx context.Context, creds *emaildomain.Credentials, originalID, body string) (*emaildomain.SentMessage, error) {
	original, err := s.GetEmailByID(ctx, creds, originalID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, fmt.Errorf("message %s not found", originalID)
	}

	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	messageID, err := sendMessage(creds, original.Sender, subject, body, original.ThreadID)
	if err != nil {
		return nil, err
	}
	return &emaildomain.SentMessage{ID: messageID, ThreadID: original.ThreadID}, nil
}

// DeleteEmail flags the message deleted and expunges it.
func (s *Service) DeleteEmail(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message id %q", id)
	}

	c, err := connectIMAP(creds)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("unable to select INBOX: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("unable to flag message deleted: %v", err)
	}
	if err := c.Expunge(nil); err != nil {
		return fmt.Errorf("unable to expunge: %v", err)
	}
	return nil
}

func (s *Service) storeSeenFlag(creds *emaildomain.Credentials, id string, add bool) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message id %q", id)
	}

	c, err := connectIMAP(creds)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("unable to select INBOX: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	var op imap.FlagsOp = imap.RemoveFlags
	if add {
		op = imap.AddFlags
	}
	item := imap.FormatFlagsOp(op, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("unable to update flags: %v", err)
	}
	return nil
}

// MarkAsRead sets the \Seen flag.
func (s *Service) MarkAsRead(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	return s.storeSeenFlag(creds, id, true)
}

// MarkAsUnread clears the \Seen flag.
func (s *Service) MarkAsUnread(ctx context.Context, creds *emaildomain.Credentials, id string) error {
	return s.storeSeenFlag(creds, id, false)
}
