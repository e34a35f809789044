package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	authdomain "mailchat-backend/internal/auth/domain"
	chatdomain "mailchat-backend/internal/chat/domain"
	chatdto "mailchat-backend/internal/chat/dto"
	emaildomain "mailchat-backend/internal/email/domain"

	"github.com/nalgeon/be"
)

func inboxFixture() *fakeProvider {
	return &fakeProvider{emails: []*emaildomain.Email{
		testEmail("1", "Quarterly report", "Alice <alice@example.com>", "Alice", "alice@example.com", "the numbers are in"),
		testEmail("2", "Lunch?", "Bob <bob@example.com>", "Bob", "bob@example.com", "free on friday?"),
	}}
}

func imapUser() *authdomain.User {
	return &authdomain.User{
		ID:       "u1",
		Email:    "me@example.com",
		Provider: "imap",
		IMAPHost: "imap.example.com",
		SMTPHost: "smtp.example.com",
	}
}

func TestHandleReadEmails(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Summarize this email": "A short summary.",
	}))

	resp, err := uc.handleReadEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "I found 2 email(s) in your inbox"))
	be.Equal(t, len(resp.Emails), 2)
	be.Equal(t, resp.Emails[0].Summary, "A short summary.")

	// bulk action plus one reply button per email
	be.Equal(t, len(resp.Actions), 3)
	be.Equal(t, resp.Actions[0].ID, "generate-all-replies")
	be.Equal(t, resp.Actions[1].Label, "Reply to #1")
	be.Equal(t, resp.Actions[2].Label, "Reply to #2")
}

func TestHandleReadEmailsEmptyInbox(t *testing.T) {
	uc, session := newTestUsecase(&fakeProvider{}, brokenAI())

	resp, err := uc.handleReadEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.Equal(t, resp.Content, "No emails found in your inbox.")
	be.True(t, resp.Emails != nil)
	be.True(t, resp.Actions != nil)
}

func TestHandleReadEmailsSummaryFailureDegrades(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), brokenAI())

	resp, err := uc.handleReadEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.Equal(t, resp.Emails[0].Summary, "Unable to generate summary")
}

func TestHandleSearchEmails(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Summarize this email": "Matched summary.",
	}))

	resp, err := uc.handleSearchEmails(context.Background(), session, "", chatdomain.CommandParams{Query: "from:alice@example.com"})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "I found 1 email(s) matching your search"))
	be.Equal(t, len(resp.Emails), 1)
	be.Equal(t, resp.Emails[0].ID, "1")
}

func TestHandleSearchEmailsNoMatch(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), brokenAI())

	resp, err := uc.handleSearchEmails(context.Background(), session, "", chatdomain.CommandParams{Query: "from:nobody@example.com"})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "No emails found matching your search"))
}

func TestHandleSearchBuildsQueryFromParams(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Summarize this email": "ok",
	}))

	resp, err := uc.handleSearchEmails(context.Background(), session, "emails from bob", chatdomain.CommandParams{Sender: "bob@example.com"})
	be.Err(t, err, nil)
	be.Equal(t, len(resp.Emails), 1)
	be.Equal(t, resp.Emails[0].ID, "2")
}

func TestHandleCategorizeEmails(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Categorize these": `{"work": ["1"], "personal": ["2"], "urgent": ["bogus-id"]}`,
	}))

	resp, err := uc.handleCategorizeEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "Smart Inbox Grouping"))
	be.True(t, strings.Contains(resp.Content, "**Work** (1 emails)"))
	be.True(t, strings.Contains(resp.Content, "**Personal** (1 emails)"))

	// the invented id is dropped, both real emails survive
	be.Equal(t, len(resp.Emails), 2)
	be.Equal(t, resp.Emails[0].Category, "work")
}

func TestHandleCategorizeUnknownLabelFoldsIntoOther(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Categorize these": `{"spam": ["1"], "work": ["2"]}`,
	}))

	resp, err := uc.handleCategorizeEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "**Other** (1 emails)"))
	be.True(t, strings.Contains(resp.Content, "**Work** (1 emails)"))
	be.Equal(t, len(resp.Emails), 2)
}

func TestHandleCategorizeFailureFoldsIntoOther(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), brokenAI())

	resp, err := uc.handleCategorizeEmails(context.Background(), session, chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "**Other** (2 emails)"))
	be.Equal(t, len(resp.Emails), 2)
}

func TestHandleDailyDigest(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Summarize this email": "One liner.",
		"daily email digest":   "Overview: quiet day.",
	}))

	resp, err := uc.handleDailyDigest(context.Background(), session)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "Today's Email Digest"))
	be.True(t, strings.Contains(resp.Content, "Overview: quiet day."))
	be.Equal(t, len(resp.Emails), 2)
	be.Equal(t, resp.Emails[0].Summary, "One liner.")
}

func TestHandleDailyDigestEmpty(t *testing.T) {
	uc, session := newTestUsecase(&fakeProvider{}, brokenAI())

	resp, err := uc.handleDailyDigest(context.Background(), session)
	be.Err(t, err, nil)
	be.Equal(t, resp.Content, "No emails found for today.")
}

func TestHandleReplyRequestSingle(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Write a reply": "Thanks, I'll take a look.",
	}))

	n := 1
	resp, err := uc.handleReplyRequest(context.Background(), session, "", chatdomain.CommandParams{EmailNumber: &n}, "")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "Suggested Reply"))
	be.True(t, strings.Contains(resp.Content, "Thanks, I'll take a look."))

	be.Equal(t, len(resp.Actions), 1)
	action := resp.Actions[0]
	be.Equal(t, action.Type, chatdomain.ActionTypeSendReply)
	be.Equal(t, action.EmailID, "1")
	be.True(t, action.RequiresConfirmation)
	be.Equal(t, action.ConfirmTitle, "Send Reply?")
	be.Equal(t, action.Payload.ReplyText, "Thanks, I'll take a look.")
}

func TestHandleReplyRequestBulkPhrase(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), scriptedAI(map[string]string{
		"Write a reply": "Sounds good.",
	}))

	resp, err := uc.handleReplyRequest(context.Background(), session, "generate replies for all my emails", chatdomain.CommandParams{}, "")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "Here are the suggested replies"))
	be.Equal(t, len(resp.Emails), 2)
	be.Equal(t, len(resp.Actions), 2)
	be.Equal(t, resp.Actions[0].Label, "Send Reply #1")
	be.Equal(t, resp.Emails[0].ReplyText, "Sounds good.")
}

func TestHandleGenerateAllRepliesSkipsEmptyBodies(t *testing.T) {
	uc, session := newTestUsecase(&fakeProvider{}, scriptedAI(map[string]string{
		"Write a reply": "On it.",
	}))

	payload := &chatdomain.ActionPayload{Emails: []chatdomain.DisplayEmail{
		{ID: "1", Subject: "Has body", Sender: chatdomain.EmailSender{Name: "Alice"}, Body: "please respond"},
		{ID: "2", Subject: "No body", Sender: chatdomain.EmailSender{Name: "Bob"}},
	}}

	resp, err := uc.handleGenerateAllReplies(context.Background(), session, payload)
	be.Err(t, err, nil)
	be.Equal(t, len(resp.Emails), 1)
	be.Equal(t, resp.Emails[0].ID, "1")
	be.Equal(t, len(resp.Actions), 1)
}

func TestHandleDeleteRequestConfirmation(t *testing.T) {
	uc, session := newTestUsecase(inboxFixture(), brokenAI())

	n := 2
	resp, err := uc.handleDeleteRequest(context.Background(), session, "", chatdomain.CommandParams{EmailNumber: &n})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "Please confirm to delete this email."))

	action := resp.Actions[0]
	be.Equal(t, action.Type, chatdomain.ActionTypeDelete)
	be.Equal(t, action.EmailID, "2")
	be.True(t, action.RequiresConfirmation)
	be.Equal(t, action.ConfirmTitle, "Permanently Delete Email?")
	be.Equal(t, action.ConfirmLabel, "Delete Permanently")
	be.Equal(t, action.CancelLabel, "Cancel")

	// nothing is deleted until the action round-trip
	be.Equal(t, len(session.provider.(*fakeProvider).deleted), 0)
}

func TestHandleDeleteRequestNotFound(t *testing.T) {
	uc, session := newTestUsecase(&fakeProvider{}, brokenAI())

	resp, err := uc.handleDeleteRequest(context.Background(), session, "remove something", chatdomain.CommandParams{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "I couldn't find the email you want to delete."))
	be.Equal(t, len(resp.Actions), 0)
}

func TestProcessActionSendReply(t *testing.T) {
	provider := inboxFixture()
	uc, _ := newTestUsecase(provider, brokenAI())

	resp, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type:    chatdomain.ActionTypeSendReply,
		EmailID: "1",
		Payload: &chatdomain.ActionPayload{ReplyText: "thanks!"},
	})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "✅ Reply sent successfully"))
	be.Equal(t, provider.sentTo, []string{"1"})
	be.Equal(t, provider.marked, []string{"1"})
}

func TestProcessActionSendReplyProviderFailure(t *testing.T) {
	provider := inboxFixture()
	provider.sendErr = errors.New("smtp down")
	uc, _ := newTestUsecase(provider, brokenAI())

	resp, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type:    chatdomain.ActionTypeSendReply,
		EmailID: "1",
		Payload: &chatdomain.ActionPayload{ReplyText: "thanks!"},
	})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "❌ Failed to send reply"))
}

func TestProcessActionSendReplyMissingText(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	_, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type:    chatdomain.ActionTypeSendReply,
		EmailID: "1",
	})

	var clientErr *chatdomain.ClientError
	be.True(t, errors.As(err, &clientErr))
}

func TestProcessActionDelete(t *testing.T) {
	provider := inboxFixture()
	uc, _ := newTestUsecase(provider, brokenAI())

	resp, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type:    chatdomain.ActionTypeDelete,
		EmailID: "2",
	})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "✅ Email permanently deleted successfully!"))
	be.Equal(t, provider.deleted, []string{"2"})
}

func TestProcessActionDeleteProviderFailure(t *testing.T) {
	provider := inboxFixture()
	provider.deleteErr = errors.New("gone already")
	uc, _ := newTestUsecase(provider, brokenAI())

	resp, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type:    chatdomain.ActionTypeDelete,
		EmailID: "2",
	})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "❌ Failed to delete email"))
}

func TestProcessActionReplyRequiresEmailID(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	_, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type: chatdomain.ActionTypeReply,
	})

	var clientErr *chatdomain.ClientError
	be.True(t, errors.As(err, &clientErr))
}

func TestProcessActionUnknownType(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	_, err := uc.ProcessAction(context.Background(), imapUser(), &chatdto.ActionRequest{
		Type: "explode",
	})

	var clientErr *chatdomain.ClientError
	be.True(t, errors.As(err, &clientErr))
	be.True(t, strings.Contains(clientErr.Message, "explode"))
}

func TestProcessMessageHelpFallback(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	resp, err := uc.ProcessMessage(context.Background(), imapUser(), "tell me a joke")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "I can help you with your emails!"))
	be.Equal(t, len(resp.Emails), 0)
	be.Equal(t, len(resp.Actions), 0)
}

func TestProcessMessageKeywordSafetyNet(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	// classifier is down, but the message clearly asks for the inbox
	resp, err := uc.ProcessMessage(context.Background(), imapUser(), "please show my emails")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(resp.Content, "in your inbox"))
	be.Equal(t, len(resp.Emails), 2)
}

func TestProcessMessageNoMailboxConnected(t *testing.T) {
	uc, _ := newTestUsecase(inboxFixture(), brokenAI())

	user := &authdomain.User{ID: "u2", Email: "x@example.com", Provider: "email"}
	_, err := uc.ProcessMessage(context.Background(), user, "show my emails")

	var clientErr *chatdomain.ClientError
	be.True(t, errors.As(err, &clientErr))
}
