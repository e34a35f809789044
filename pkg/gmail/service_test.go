package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"google.golang.org/api/gmail/v1"

	"github.com/nalgeon/be"
)

func TestParseSender(t *testing.T) {
	t.Run("name and address", func(t *testing.T) {
		name, addr := parseSender("Alice Example <alice@example.com>")
		be.Equal(t, name, "Alice Example")
		be.Equal(t, addr, "alice@example.com")
	})

	t.Run("quoted name", func(t *testing.T) {
		name, addr := parseSender(`"Bob Builder" <bob@example.com>`)
		be.Equal(t, name, "Bob Builder")
		be.Equal(t, addr, "bob@example.com")
	})

	t.Run("bare address", func(t *testing.T) {
		name, addr := parseSender("carol@example.com")
		be.Equal(t, name, "")
		be.Equal(t, addr, "carol@example.com")
	})
}

func TestGetHeader(t *testing.T) {
	payload := &gmail.MessagePart{
		Headers: []*gmail.MessagePartHeader{
			{Name: "Subject", Value: "Hello"},
			{Name: "From", Value: "alice@example.com"},
		},
	}

	be.Equal(t, getHeader(payload, "Subject"), "Hello")
	be.Equal(t, getHeader(payload, "subject"), "Hello")
	be.Equal(t, getHeader(payload, "To"), "")
	be.Equal(t, getHeader(nil, "Subject"), "")
}

func TestStripHTML(t *testing.T) {
	html := "<div><p>Hello &amp; welcome</p>\n<p>to&nbsp;the team</p></div>"
	be.Equal(t, stripHTML(html), "Hello & welcome to the team")
}

func TestConvertMessage(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("meeting at noon"))
	msg := &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "meeting at...",
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Meeting"},
				{Name: "From", Value: "Alice Example <alice@example.com>"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Date", Value: "Mon, 01 Jan 2024 10:00:00 +0000"},
			},
			Body: &gmail.MessagePartBody{Data: body},
		},
	}

	email := convertMessage(msg)
	be.Equal(t, email.ID, "m1")
	be.Equal(t, email.ThreadID, "t1")
	be.Equal(t, email.Subject, "Meeting")
	be.Equal(t, email.SenderName, "Alice Example")
	be.Equal(t, email.SenderEmail, "alice@example.com")
	be.Equal(t, email.Body, "meeting at noon")
	be.True(t, email.Unread)
}

func TestConvertMessageFallsBackToSnippet(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m2",
		Snippet: "just the snippet",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "bob@example.com"},
			},
		},
	}

	email := convertMessage(msg)
	be.Equal(t, email.Body, "just the snippet")
	be.True(t, !email.Unread)
}

func TestBuildRawMessage(t *testing.T) {
	raw := buildRawMessage("alice@example.com", "Re: Hello", "thanks!", "<orig@id>", "<orig@id>")
	decoded, err := base64.URLEncoding.DecodeString(raw)
	be.Err(t, err, nil)

	text := string(decoded)
	for _, want := range []string{"To: alice@example.com", "In-Reply-To: <orig@id>", "thanks!"} {
		be.True(t, strings.Contains(text, want))
	}
}
