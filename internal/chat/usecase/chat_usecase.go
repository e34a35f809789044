package usecase

import (
	"context"
	"strings"

	authdomain "mailchat-backend/internal/auth/domain"
	"mailchat-backend/internal/auth/repository"
	chatdomain "mailchat-backend/internal/chat/domain"
	chatdto "mailchat-backend/internal/chat/dto"
	emaildomain "mailchat-backend/internal/email/domain"
	"mailchat-backend/pkg/ai"
	"mailchat-backend/pkg/config"

	"golang.org/x/oauth2"
)

const helpContent = "I can help you with your emails! Try:\n\n" +
	"• \"Show me my last 5 emails\"\n" +
	"• \"Categorize my emails\"\n" +
	"• \"Give me today's email digest\"\n" +
	"• \"Generate replies for my emails\"\n" +
	"• \"Delete email number 2\""

// messageHandler runs one classified conversational intent.
type messageHandler func(ctx context.Context, session *mailSession, userMessage string, params chatdomain.CommandParams) (*chatdomain.ChatResponse, error)

// actionHandler runs one explicit confirmed action from the client.
type actionHandler func(ctx context.Context, session *mailSession, req *chatdto.ActionRequest, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error)

// chatUsecase implements ChatUsecase interface
type chatUsecase struct {
	userRepo repository.UserRepository
	gmail    emaildomain.MailProvider
	imap     emaildomain.MailProvider
	ai       ai.CompletionService
	config   *config.Config

	messageHandlers map[string]messageHandler
	actionHandlers  map[string]actionHandler
}

// NewChatUsecase creates a new instance of chatUsecase. The AI service is
// attached later via SetAIService because it depends on runtime settings.
func NewChatUsecase(userRepo repository.UserRepository, gmail, imap emaildomain.MailProvider, cfg *config.Config) *chatUsecase {
	c := &chatUsecase{
		userRepo: userRepo,
		gmail:    gmail,
		imap:     imap,
		config:   cfg,
	}

	c.messageHandlers = map[string]messageHandler{
		chatdomain.CommandRead: func(ctx context.Context, s *mailSession, _ string, p chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleReadEmails(ctx, s, p)
		},
		chatdomain.CommandReply: func(ctx context.Context, s *mailSession, msg string, p chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleReplyRequest(ctx, s, msg, p, "")
		},
		chatdomain.CommandDelete: func(ctx context.Context, s *mailSession, msg string, p chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleDeleteRequest(ctx, s, msg, p)
		},
		chatdomain.CommandSearch: func(ctx context.Context, s *mailSession, msg string, p chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleSearchEmails(ctx, s, msg, p)
		},
		chatdomain.CommandDigest: func(ctx context.Context, s *mailSession, _ string, _ chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleDailyDigest(ctx, s)
		},
		chatdomain.CommandCategorize: func(ctx context.Context, s *mailSession, _ string, p chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
			return c.handleCategorizeEmails(ctx, s, p)
		},
	}

	c.actionHandlers = map[string]actionHandler{
		chatdomain.ActionTypeSendReply: func(ctx context.Context, s *mailSession, req *chatdto.ActionRequest, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
			return c.handleSendReply(ctx, s, req.EmailID, payload)
		},
		chatdomain.ActionTypeDelete: func(ctx context.Context, s *mailSession, req *chatdto.ActionRequest, _ *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
			return c.handleDeleteEmail(ctx, s, req.EmailID)
		},
		chatdomain.ActionTypeGenerateReplies: func(ctx context.Context, s *mailSession, _ *chatdto.ActionRequest, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
			return c.handleGenerateAllReplies(ctx, s, payload)
		},
		chatdomain.ActionTypeReply: func(ctx context.Context, s *mailSession, req *chatdto.ActionRequest, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
			if req.EmailID == "" {
				return nil, chatdomain.NewClientError("Email ID is required for reply action")
			}
			params := chatdomain.CommandParams{
				Tone:         payload.Tone,
				ReplyContext: payload.ReplyContext,
			}
			return c.handleReplyRequest(ctx, s, "", params, req.EmailID)
		},
	}
	return c
}

func (c *chatUsecase) SetAIService(svc ai.CompletionService) {
	c.ai = svc
}

// mailSession binds a mail provider to one user's credentials.
type mailSession struct {
	provider emaildomain.MailProvider
	creds    *emaildomain.Credentials
}

func (c *chatUsecase) sessionForUser(user *authdomain.User) (*mailSession, error) {
	switch user.Provider {
	case "google":
		if user.AccessToken == "" && user.RefreshToken == "" {
			return nil, chatdomain.NewClientError("no Gmail account connected, please sign in with Google first")
		}
		userID := user.ID
		return &mailSession{
			provider: c.gmail,
			creds: &emaildomain.Credentials{
				Provider:     "google",
				AccessToken:  user.AccessToken,
				RefreshToken: user.RefreshToken,
				OnTokenRefresh: func(token *oauth2.Token) error {
					stored, err := c.userRepo.FindByID(userID)
					if err != nil || stored == nil {
						return err
					}
					stored.AccessToken = token.AccessToken
					if token.RefreshToken != "" {
						stored.RefreshToken = token.RefreshToken
					}
					return c.userRepo.Update(stored)
				},
			},
		}, nil
	case "imap":
		return &mailSession{
			provider: c.imap,
			creds: &emaildomain.Credentials{
				Provider: "imap",
				IMAPHost: user.IMAPHost,
				SMTPHost: user.SMTPHost,
				Username: user.Email,
				Password: user.IMAPPassword,
			},
		}, nil
	default:
		return nil, chatdomain.NewClientError("no mailbox connected, please sign in with Google or connect an IMAP account")
	}
}

// ProcessMessage classifies a natural language message and runs the
// matching mailbox operation.
func (c *chatUsecase) ProcessMessage(ctx context.Context, user *authdomain.User, message string) (*chatdomain.ChatResponse, error) {
	session, err := c.sessionForUser(user)
	if err != nil {
		return nil, err
	}

	userMessage := strings.TrimSpace(message)
	parsed := c.parseCommand(ctx, userMessage)

	if handle, ok := c.messageHandlers[parsed.Action]; ok {
		return handle(ctx, session, userMessage, parsed.Params)
	}

	// Keyword safety net: the classifier missed, but the message clearly
	// talks about mail.
	lower := strings.ToLower(userMessage)
	if containsAny(lower, "email", "emails", "inbox", "messages", "digest", "categorize") {
		if strings.Contains(lower, "digest") {
			return c.handleDailyDigest(ctx, session)
		}
		if strings.Contains(lower, "categorize") || strings.Contains(lower, "group") {
			return c.handleCategorizeEmails(ctx, session, parsed.Params)
		}
		count := 5
		return c.handleReadEmails(ctx, session, chatdomain.CommandParams{Count: &count})
	}

	return createResponse(helpContent, nil, nil), nil
}

// ProcessAction executes a confirmed action from a previous response.
func (c *chatUsecase) ProcessAction(ctx context.Context, user *authdomain.User, req *chatdto.ActionRequest) (*chatdomain.ChatResponse, error) {
	session, err := c.sessionForUser(user)
	if err != nil {
		return nil, err
	}

	payload := req.Payload
	if payload == nil {
		payload = &chatdomain.ActionPayload{}
	}

	handle, ok := c.actionHandlers[req.Type]
	if !ok {
		return nil, chatdomain.NewClientError("Unknown action type: %s", req.Type)
	}
	return handle(ctx, session, req, payload)
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
