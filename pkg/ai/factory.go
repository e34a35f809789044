package ai

import (
	"log"

	"mailchat-backend/pkg/gemini"
)

// DynamicConfig holds AI provider configuration with runtime getters for
// the Ollama settings, so changes made through the settings API take
// effect without a restart.
type DynamicConfig struct {
	Provider         ProviderType
	GeminiAPIKey     string
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewCompletionServiceWithDynamicConfig creates an AI service based on configuration
func NewCompletionServiceWithDynamicConfig(cfg DynamicConfig) CompletionService {
	switch cfg.Provider {
	case ProviderGemini:
		log.Printf("[DEBUG] Using Gemini AI provider")
		return gemini.NewGeminiService(cfg.GeminiAPIKey)

	case ProviderOllama:
		log.Printf("[DEBUG] Using Ollama AI provider")
		return NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)

	case ProviderAuto:
		log.Printf("[DEBUG] Using auto AI provider (Ollama with Gemini fallback)")
		ollama := NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
		var geminiSvc CompletionService
		if cfg.GeminiAPIKey != "" {
			geminiSvc = gemini.NewGeminiService(cfg.GeminiAPIKey)
		}
		return NewFallbackService(geminiSvc, ollama)

	default:
		// Unknown provider: prefer Gemini when a key is configured
		if cfg.GeminiAPIKey != "" {
			log.Printf("[DEBUG] Unknown AI provider %q, defaulting to Gemini", cfg.Provider)
			return gemini.NewGeminiService(cfg.GeminiAPIKey)
		}
		log.Printf("[DEBUG] Unknown AI provider %q, defaulting to Ollama", cfg.Provider)
		return NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
	}
}
