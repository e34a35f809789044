package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	chatdomain "mailchat-backend/internal/chat/domain"
)

// extractJSON pulls a JSON object out of a model response, tolerating
// markdown code fences and surrounding prose.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// parseCommand classifies the user's message into an action and
// parameters. Never fails: unusable model output degrades to the
// "unknown" action carrying the raw message as a query.
func (c *chatUsecase) parseCommand(ctx context.Context, userMessage string) *chatdomain.ParsedCommand {
	fallback := &chatdomain.ParsedCommand{
		Action: chatdomain.CommandUnknown,
		Params: chatdomain.CommandParams{Query: userMessage},
	}

	response, err := c.ai.Complete(ctx, fmt.Sprintf(parseCommandPrompt, userMessage))
	if err != nil {
		log.Printf("[WARN] command parsing failed: %v", err)
		return fallback
	}

	var parsed chatdomain.ParsedCommand
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		log.Printf("[WARN] command parsing returned invalid JSON: %v", err)
		return fallback
	}
	if parsed.Action == "" {
		return fallback
	}
	return &parsed
}
