package ai

import (
	"context"
	"log"
	"strings"
)

// FallbackService tries Ollama first, then falls back to Gemini.
// When Gemini hits its quota it retries Ollama once more.
type FallbackService struct {
	gemini CompletionService
	ollama *OllamaService
}

// NewFallbackService creates a service that prefers Ollama and falls back to Gemini
func NewFallbackService(gemini CompletionService, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if an error is a connection-related error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connect:") ||
		strings.Contains(msg, "dial tcp")
}

// isQuotaError checks if an error is a quota/rate-limit error
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "rate limit")
}

// Complete implements CompletionService with fallback logic
func (f *FallbackService) Complete(ctx context.Context, prompt string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}
		if !isConnectionError(err) {
			log.Printf("[WARN] Ollama completion failed: %v", err)
		}
	}

	if f.gemini == nil {
		return "", &NoProviderError{}
	}

	result, err := f.gemini.Complete(ctx, prompt)
	if err != nil && isQuotaError(err) && f.ollama != nil {
		log.Printf("[WARN] Gemini quota exhausted, retrying Ollama")
		return f.ollama.Complete(ctx, prompt)
	}
	return result, err
}

// NoProviderError indicates that no AI provider is available
type NoProviderError struct{}

func (e *NoProviderError) Error() string {
	return "no AI provider available"
}
