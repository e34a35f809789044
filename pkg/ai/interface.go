package ai

import "context"

// CompletionService is the interface for LLM text completion.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
