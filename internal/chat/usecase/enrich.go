package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	chatdomain "mailchat-backend/internal/chat/domain"
	emaildomain "mailchat-backend/internal/email/domain"
)

func bodyOrSnippet(email *emaildomain.Email) string {
	if email.Body != "" {
		return email.Body
	}
	return email.Snippet
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// summarize produces a short summary of an email body. Degrades to a
// placeholder rather than failing the whole request.
func (c *chatUsecase) summarize(ctx context.Context, body string, maxSentences int) string {
	result, err := c.ai.Complete(ctx, fmt.Sprintf(summarizePrompt, maxSentences, body))
	if err != nil {
		log.Printf("[WARN] summarization failed: %v", err)
		return "Unable to generate summary"
	}
	return strings.TrimSpace(result)
}

// generateReply drafts a reply in the requested tone.
func (c *chatUsecase) generateReply(ctx context.Context, body, senderName, tone, replyContext string) string {
	instruction, ok := toneInstructions[tone]
	if !ok {
		instruction = toneInstructions["professional"]
	}

	contextLine := ""
	if replyContext != "" {
		contextLine = "Additional context: " + replyContext
	}

	result, err := c.ai.Complete(ctx, fmt.Sprintf(replyPrompt, instruction, senderName, body, contextLine))
	if err != nil {
		log.Printf("[WARN] reply generation failed: %v", err)
		return "I'd be happy to help. Could you provide more details?"
	}
	return strings.TrimSpace(result)
}

type categorizeEntry struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Preview string `json:"preview"`
}

// categorizeWithAI maps email IDs to category buckets. Every email ends
// up in "other" when the model output is unusable.
func (c *chatUsecase) categorizeWithAI(ctx context.Context, emails []*emaildomain.Email) map[string][]string {
	entries := make([]categorizeEntry, 0, len(emails))
	for _, email := range emails {
		from := email.SenderName
		if from == "" {
			from = email.Sender
		}
		if from == "" {
			from = "Unknown"
		}
		subject := email.Subject
		if subject == "" {
			subject = "No Subject"
		}
		entries = append(entries, categorizeEntry{
			ID:      email.ID,
			From:    from,
			Subject: subject,
			Preview: truncate(email.Snippet, 100),
		})
	}

	allOther := func() map[string][]string {
		ids := make([]string, 0, len(emails))
		for _, email := range emails {
			ids = append(ids, email.ID)
		}
		return map[string][]string{"other": ids}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return allOther()
	}

	result, err := c.ai.Complete(ctx, fmt.Sprintf(categorizePrompt, len(emails), string(data)))
	if err != nil {
		log.Printf("[WARN] categorization failed: %v", err)
		return allOther()
	}

	var categories map[string][]string
	if err := json.Unmarshal([]byte(extractJSON(result)), &categories); err != nil {
		log.Printf("[WARN] categorization returned invalid JSON: %v", err)
		return allOther()
	}
	return categories
}

type digestEntry struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Preview string `json:"preview"`
}

// generateDigest builds the daily digest narrative.
func (c *chatUsecase) generateDigest(ctx context.Context, emails []*emaildomain.Email) string {
	entries := make([]digestEntry, 0, len(emails))
	for _, email := range emails {
		from := email.SenderName
		if from == "" {
			from = email.Sender
		}
		if from == "" {
			from = "Unknown"
		}
		subject := email.Subject
		if subject == "" {
			subject = "No Subject"
		}
		entries = append(entries, digestEntry{
			From:    from,
			Subject: subject,
			Preview: truncate(email.Snippet, 150),
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Sprintf("Daily Digest: You have %d emails. Unable to generate detailed summary.", len(emails))
	}

	result, err := c.ai.Complete(ctx, fmt.Sprintf(digestPrompt, len(emails), string(data)))
	if err != nil {
		log.Printf("[WARN] digest generation failed: %v", err)
		return fmt.Sprintf("Daily Digest: You have %d emails. Unable to generate detailed summary.", len(emails))
	}
	return strings.TrimSpace(result)
}

// enrichEmailsWithSummaries formats emails for display and attaches a
// two-sentence summary to each, one model call per email.
func (c *chatUsecase) enrichEmailsWithSummaries(ctx context.Context, emails []*emaildomain.Email) []chatdomain.DisplayEmail {
	enriched := make([]chatdomain.DisplayEmail, 0, len(emails))
	for _, email := range emails {
		formatted := formatEmailForDisplay(email)
		formatted.Summary = c.summarize(ctx, bodyOrSnippet(email), 2)
		enriched = append(enriched, formatted)
	}
	return enriched
}
