package domain

import (
	"fmt"
	"time"
)

// Command actions recognized by the message dispatcher.
const (
	CommandRead       = "read"
	CommandReply      = "reply"
	CommandDelete     = "delete"
	CommandSearch     = "search"
	CommandDigest     = "digest"
	CommandCategorize = "categorize"
	CommandUnknown    = "unknown"
)

// Action types attachable to a response.
const (
	ActionTypeReply           = "reply"
	ActionTypeDelete          = "delete"
	ActionTypeSendReply       = "send_reply"
	ActionTypeGenerateReplies = "generate_replies"
)

// EmailSender is the split sender identity shown to the client.
type EmailSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DisplayEmail is the normalized, request-scoped view of a provider email.
// Summary, Category and ReplyText are attached only by enrichment.
type DisplayEmail struct {
	ID        string      `json:"id"`
	Subject   string      `json:"subject"`
	Sender    EmailSender `json:"sender"`
	Date      string      `json:"date"`
	Timestamp string      `json:"timestamp,omitempty"` // RFC 3339, empty when the date header did not parse
	Snippet   string      `json:"snippet"`
	Body      string      `json:"body,omitempty"`
	IsRead    bool        `json:"isRead"`
	Summary   string      `json:"summary,omitempty"`
	Category  string      `json:"category,omitempty"`
	ReplyText string      `json:"replyText,omitempty"`
}

// ActionPayload carries the parameters needed to execute an action. The same
// shape is used on outgoing suggestions and incoming action requests.
type ActionPayload struct {
	ReplyText    string         `json:"replyText,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	Sender       string         `json:"sender,omitempty"`
	Tone         string         `json:"tone,omitempty"`
	ReplyContext string         `json:"replyContext,omitempty"`
	EmailIDs     []string       `json:"emailIds,omitempty"`
	Emails       []DisplayEmail `json:"emails,omitempty"`
}

// Action is a suggested or directly invokable follow-up operation attached to
// a response. Destructive actions carry confirmation metadata.
type Action struct {
	ID                   string         `json:"id"`
	Type                 string         `json:"type"`
	Label                string         `json:"label"`
	EmailID              string         `json:"emailId,omitempty"`
	Payload              *ActionPayload `json:"payload,omitempty"`
	RequiresConfirmation bool           `json:"requiresConfirmation,omitempty"`
	ConfirmTitle         string         `json:"confirmTitle,omitempty"`
	ConfirmDescription   string         `json:"confirmDescription,omitempty"`
	ConfirmLabel         string         `json:"confirmLabel,omitempty"`
	CancelLabel          string         `json:"cancelLabel,omitempty"`
}

// CommandParams is the structured parameter bag of a parsed command. Every
// field is optional; absence means "use the handler default".
type CommandParams struct {
	Count           *int     `json:"count,omitempty"`
	Query           string   `json:"query,omitempty"`
	Sender          string   `json:"sender,omitempty"`
	SubjectKeywords []string `json:"subject_keywords,omitempty"`
	EmailNumber     *int     `json:"email_number,omitempty"`
	Tone            string   `json:"tone,omitempty"`
	ReplyContext    string   `json:"reply_context,omitempty"`
}

// ParsedCommand is the classifier output: one discrete action plus parameters.
type ParsedCommand struct {
	Action string        `json:"action"`
	Params CommandParams `json:"parameters"`
}

// ChatResponse is the uniform envelope returned from every chat endpoint.
// Content is always non-empty; Emails and Actions are never null.
type ChatResponse struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Emails    []DisplayEmail `json:"emails"`
	Actions   []Action       `json:"actions"`
	Timestamp time.Time      `json:"timestamp"`
}

// ClientError marks a failure caused by the request itself. The delivery
// layer maps it to a 400 response instead of a 500.
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// NewClientError builds a ClientError with a formatted message.
func NewClientError(format string, args ...interface{}) error {
	return &ClientError{Message: fmt.Sprintf(format, args...)}
}
