package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	chatdomain "mailchat-backend/internal/chat/domain"
	emaildomain "mailchat-backend/internal/email/domain"
	"mailchat-backend/pkg/nlp"
)

func countOrDefault(params chatdomain.CommandParams, def int) int {
	if params.Count != nil && *params.Count > 0 {
		return *params.Count
	}
	return def
}

// prepareReplyActions builds the reply buttons for a listing: one per
// email, plus a bulk action when there is more than one.
func prepareReplyActions(emails []chatdomain.DisplayEmail) []chatdomain.Action {
	var actions []chatdomain.Action

	if len(emails) > 1 {
		ids := make([]string, 0, len(emails))
		for _, email := range emails {
			ids = append(ids, email.ID)
		}
		actions = append(actions, chatdomain.Action{
			ID:    "generate-all-replies",
			Type:  chatdomain.ActionTypeGenerateReplies,
			Label: "Generate Replies for All",
			Payload: &chatdomain.ActionPayload{
				EmailIDs: ids,
				Emails:   emails,
			},
		})
	}

	for idx, email := range emails {
		actions = append(actions, chatdomain.Action{
			ID:      fmt.Sprintf("reply-%s", email.ID),
			Type:    chatdomain.ActionTypeReply,
			Label:   fmt.Sprintf("Reply to #%d", idx+1),
			EmailID: email.ID,
			Payload: &chatdomain.ActionPayload{
				Subject: email.Subject,
				Sender:  email.Sender.Name,
			},
		})
	}
	return actions
}

func formatEmailList(intro string, emails []chatdomain.DisplayEmail) string {
	var sb strings.Builder
	sb.WriteString(intro)
	for idx, email := range emails {
		sb.WriteString(fmt.Sprintf("**Email #%d**\n", idx+1))
		sb.WriteString(fmt.Sprintf("From: %s (%s)\n", email.Sender.Name, email.Sender.Email))
		sb.WriteString(fmt.Sprintf("Subject: %s\n", email.Subject))
		sb.WriteString(fmt.Sprintf("Summary: %s\n\n", email.Summary))
	}
	return sb.String()
}

func (c *chatUsecase) handleReadEmails(ctx context.Context, session *mailSession, params chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
	count := countOrDefault(params, 5)
	emails, err := session.provider.FetchEmails(ctx, session.creds, count, "")
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return createResponse("No emails found in your inbox.", nil, nil), nil
	}

	enriched := c.enrichEmailsWithSummaries(ctx, emails)
	content := formatEmailList(fmt.Sprintf("I found %d email(s) in your inbox:\n\n", len(enriched)), enriched)
	return createResponse(content, enriched, prepareReplyActions(enriched)), nil
}

func (c *chatUsecase) handleSearchEmails(ctx context.Context, session *mailSession, userMessage string, params chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
	count := countOrDefault(params, 10)

	query := params.Query
	if query == "" {
		query = nlp.BuildQuery(params.Sender, params.SubjectKeywords, nlp.ParseTimeReference(userMessage, time.Now()))
	}
	if query == "" {
		return c.handleReadEmails(ctx, session, chatdomain.CommandParams{Count: &count})
	}

	emails, err := session.provider.SearchEmails(ctx, session.creds, query, count)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return createResponse(fmt.Sprintf("No emails found matching your search: %s", query), nil, nil), nil
	}

	enriched := c.enrichEmailsWithSummaries(ctx, emails)
	content := formatEmailList(fmt.Sprintf("I found %d email(s) matching your search:\n\n", len(enriched)), enriched)
	return createResponse(content, enriched, prepareReplyActions(enriched)), nil
}

// Display order for category sections.
var categoryOrder = []string{"Work", "Promotions", "Personal", "Urgent", "Other"}

var categoryNames = map[string]string{
	"work":       "Work",
	"promotions": "Promotions",
	"personal":   "Personal",
	"urgent":     "Urgent",
	"other":      "Other",
}

func (c *chatUsecase) handleCategorizeEmails(ctx context.Context, session *mailSession, params chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
	count := countOrDefault(params, 20)
	emails, err := session.provider.FetchEmails(ctx, session.creds, count, "")
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return createResponse("No emails found to categorize.", nil, nil), nil
	}

	byID := make(map[string]*emaildomain.Email, len(emails))
	for _, email := range emails {
		byID[email.ID] = email
	}

	categories := c.categorizeWithAI(ctx, emails)

	// IDs the model invented are dropped; labels it invented fold into Other.
	grouped := make(map[string][]chatdomain.DisplayEmail)
	for label, ids := range categories {
		name, ok := categoryNames[strings.ToLower(label)]
		if !ok {
			name = "Other"
		}
		for _, id := range ids {
			original, ok := byID[id]
			if !ok {
				continue
			}
			formatted := formatEmailForDisplay(original)
			formatted.Category = strings.ToLower(label)
			grouped[name] = append(grouped[name], formatted)
		}
	}

	var sb strings.Builder
	sb.WriteString("📧 **Smart Inbox Grouping**\n\n")
	var allEmails []chatdomain.DisplayEmail
	for _, name := range categoryOrder {
		catEmails := grouped[name]
		if len(catEmails) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("**%s** (%d emails)\n", name, len(catEmails)))
		for i, email := range catEmails {
			if i >= 5 {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(catEmails)-5))
				break
			}
			sb.WriteString(fmt.Sprintf("• %s - %s\n", email.Subject, email.Sender.Name))
		}
		sb.WriteString("\n")
		allEmails = append(allEmails, catEmails...)
	}

	return createResponse(sb.String(), allEmails, nil), nil
}

func (c *chatUsecase) handleDailyDigest(ctx context.Context, session *mailSession) (*chatdomain.ChatResponse, error) {
	query := "after:" + time.Now().Format("2006/01/02")
	emails, err := session.provider.SearchEmails(ctx, session.creds, query, 50)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return createResponse("No emails found for today.", nil, nil), nil
	}

	enriched := make([]chatdomain.DisplayEmail, 0, len(emails))
	for _, email := range emails {
		formatted := formatEmailForDisplay(email)
		formatted.Summary = c.summarize(ctx, bodyOrSnippet(email), 1)
		enriched = append(enriched, formatted)
	}

	digest := c.generateDigest(ctx, emails)
	content := fmt.Sprintf("📅 **Today's Email Digest** (%d emails)\n\n%s", len(emails), digest)

	if len(enriched) > 10 {
		enriched = enriched[:10]
	}
	return createResponse(content, enriched, nil), nil
}

var bulkReplyPhrases = []string{"all", "these", "them", "my emails", "the emails"}

func (c *chatUsecase) handleReplyRequest(ctx context.Context, session *mailSession, userMessage string, params chatdomain.CommandParams, emailID string) (*chatdomain.ChatResponse, error) {
	lower := strings.ToLower(userMessage)
	for _, phrase := range bulkReplyPhrases {
		if strings.Contains(lower, phrase) {
			emails, err := session.provider.FetchEmails(ctx, session.creds, 5, "")
			if err != nil {
				return nil, err
			}
			if len(emails) == 0 {
				return createResponse("No emails found to generate replies for.", nil, nil), nil
			}

			emailsData := make([]chatdomain.DisplayEmail, 0, len(emails))
			for _, email := range emails {
				formatted := formatEmailForDisplay(email)
				formatted.Body = bodyOrSnippet(email)
				emailsData = append(emailsData, formatted)
			}
			return c.handleGenerateAllReplies(ctx, session, &chatdomain.ActionPayload{Emails: emailsData})
		}
	}

	var target *emaildomain.Email
	var err error
	if emailID != "" {
		target, err = session.provider.GetEmailByID(ctx, session.creds, emailID)
		if err != nil {
			return nil, err
		}
	}
	if target == nil {
		target, err = c.findEmailByCriteria(ctx, session, params, userMessage)
		if err != nil {
			return nil, err
		}
	}
	if target == nil {
		emails, err := session.provider.FetchEmails(ctx, session.creds, 1, "")
		if err != nil {
			return nil, err
		}
		if len(emails) == 0 {
			return createResponse("No emails found to reply to.", nil, nil), nil
		}
		target = emails[0]
	}

	senderName := target.SenderName
	if senderName == "" {
		senderName = "the sender"
	}

	replyText := c.generateReply(ctx, bodyOrSnippet(target), senderName, params.Tone, params.ReplyContext)

	displayName := target.SenderName
	if displayName == "" {
		displayName = "Unknown"
	}
	subject := target.Subject
	if subject == "" {
		subject = "No Subject"
	}

	actions := []chatdomain.Action{{
		ID:      fmt.Sprintf("send-reply-%s", target.ID),
		Type:    chatdomain.ActionTypeSendReply,
		Label:   "Send Reply",
		EmailID: target.ID,
		Payload: &chatdomain.ActionPayload{
			ReplyText: replyText,
			Subject:   subject,
			Sender:    displayName,
		},
		RequiresConfirmation: true,
		ConfirmTitle:         "Send Reply?",
		ConfirmDescription:   fmt.Sprintf("Send this reply to %s?", displayName),
	}}

	content := fmt.Sprintf("Here's a suggested reply to %q from %s:\n\n**Suggested Reply:**\n%s", subject, displayName, replyText)
	return createResponse(content, []chatdomain.DisplayEmail{formatEmailForDisplay(target)}, actions), nil
}

const deleteGuidance = "**I couldn't find the email you want to delete.**\n\n" +
	"**Here are some ways to delete emails:**\n\n" +
	"**1. By Number:**\n" +
	"   \"Delete email number 2\"\n" +
	"   (First view your emails to see the numbers)\n\n" +
	"**2. By Sender:**\n" +
	"   \"Delete the latest email from john@example.com\"\n\n" +
	"**3. By Subject:**\n" +
	"   \"Delete email with subject 'Invoice'\"\n\n" +
	"**Tip:** Say \"Show me my emails\" first to see what you have, then you can delete by number!"

func (c *chatUsecase) handleDeleteRequest(ctx context.Context, session *mailSession, userMessage string, params chatdomain.CommandParams) (*chatdomain.ChatResponse, error) {
	target, err := c.findEmailByCriteria(ctx, session, params, userMessage)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return createResponse(deleteGuidance, nil, nil), nil
	}

	senderName := target.SenderName
	if senderName == "" {
		senderName = "Unknown"
	}
	subject := target.Subject
	if subject == "" {
		subject = "No Subject"
	}

	actions := []chatdomain.Action{{
		ID:      fmt.Sprintf("delete-%s", target.ID),
		Type:    chatdomain.ActionTypeDelete,
		Label:   "Delete Email",
		EmailID: target.ID,
		Payload: &chatdomain.ActionPayload{
			Subject: subject,
			Sender:  senderName,
		},
		RequiresConfirmation: true,
		ConfirmTitle:         "Permanently Delete Email?",
		ConfirmDescription:   fmt.Sprintf("This will permanently delete %q from %s. This action cannot be undone.", subject, senderName),
		ConfirmLabel:         "Delete Permanently",
		CancelLabel:          "Cancel",
	}}

	content := fmt.Sprintf("I found the email you want to delete:\n\n**From:** %s\n**Subject:** %s\n\nPlease confirm to delete this email.", senderName, subject)
	return createResponse(content, []chatdomain.DisplayEmail{formatEmailForDisplay(target)}, actions), nil
}

func (c *chatUsecase) handleGenerateAllReplies(ctx context.Context, session *mailSession, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
	emailsData := payload.Emails

	// Fetch by ID when only IDs were handed over
	if len(emailsData) == 0 && len(payload.EmailIDs) > 0 {
		for _, id := range payload.EmailIDs {
			email, err := session.provider.GetEmailByID(ctx, session.creds, id)
			if err != nil {
				return nil, err
			}
			if email == nil {
				continue
			}
			formatted := formatEmailForDisplay(email)
			formatted.Body = bodyOrSnippet(email)
			emailsData = append(emailsData, formatted)
		}
	}

	if len(emailsData) == 0 {
		return createResponse("No emails found to generate replies for.", nil, nil), nil
	}

	var emailsWithReplies []chatdomain.DisplayEmail
	var actions []chatdomain.Action
	var sb strings.Builder
	sb.WriteString("Here are the suggested replies for your emails:\n\n")

	idx := 0
	for _, info := range emailsData {
		if info.Body == "" {
			email, err := session.provider.GetEmailByID(ctx, session.creds, info.ID)
			if err != nil {
				return nil, err
			}
			if email != nil {
				info.Body = bodyOrSnippet(email)
			}
		}
		if info.Body == "" {
			continue
		}
		idx++

		senderName := info.Sender.Name
		if senderName == "" {
			senderName = "Unknown"
		}
		subject := info.Subject
		if subject == "" {
			subject = "No Subject"
		}

		replyText := c.generateReply(ctx, info.Body, senderName, "professional", "")

		sb.WriteString(fmt.Sprintf("**Email #%d: %s**\n", idx, subject))
		sb.WriteString(fmt.Sprintf("From: %s\n", senderName))
		sb.WriteString(fmt.Sprintf("Suggested Reply:\n%s\n\n", replyText))

		info.ReplyText = replyText
		emailsWithReplies = append(emailsWithReplies, info)

		actions = append(actions, chatdomain.Action{
			ID:      fmt.Sprintf("send-reply-%s", info.ID),
			Type:    chatdomain.ActionTypeSendReply,
			Label:   fmt.Sprintf("Send Reply #%d", idx),
			EmailID: info.ID,
			Payload: &chatdomain.ActionPayload{
				ReplyText: replyText,
				Subject:   subject,
				Sender:    senderName,
			},
			RequiresConfirmation: true,
			ConfirmTitle:         "Send Reply?",
			ConfirmDescription:   fmt.Sprintf("Send this reply to %s?", senderName),
		})
	}

	return createResponse(sb.String(), emailsWithReplies, actions), nil
}

func (c *chatUsecase) handleSendReply(ctx context.Context, session *mailSession, emailID string, payload *chatdomain.ActionPayload) (*chatdomain.ChatResponse, error) {
	if payload.ReplyText == "" {
		return nil, chatdomain.NewClientError("Reply text is required")
	}

	// Provider failures surface as a normal chat message, not an API error
	if _, err := session.provider.SendReply(ctx, session.creds, emailID, payload.ReplyText); err != nil {
		return createResponse(fmt.Sprintf("❌ Failed to send reply: %v", err), nil, nil), nil
	}

	// A replied email is a read email. Best effort only.
	if err := session.provider.MarkAsRead(ctx, session.creds, emailID); err != nil {
		log.Printf("[WARN] failed to mark email %s as read: %v", emailID, err)
	}
	return createResponse("✅ Reply sent successfully! Your message has been delivered.", nil, nil), nil
}

func (c *chatUsecase) handleDeleteEmail(ctx context.Context, session *mailSession, emailID string) (*chatdomain.ChatResponse, error) {
	if err := session.provider.DeleteEmail(ctx, session.creds, emailID); err != nil {
		return createResponse(fmt.Sprintf("❌ Failed to delete email: %v", err), nil, nil), nil
	}
	return createResponse("✅ Email permanently deleted successfully!", nil, nil), nil
}
