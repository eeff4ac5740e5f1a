package factory

import (
	"fmt"

	"book-rag-be/internal/config"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/llm/extractive"
	"book-rag-be/pkg/llm/gemini"
	"book-rag-be/pkg/llm/huggingface"
	"book-rag-be/pkg/llm/ollama"
	"book-rag-be/pkg/llm/openai"
)

func NewLLMProvider(providerType string, cfg *config.Config) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	case "openai":
		return openai.NewProvider(cfg.Keys.OpenAI, cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIChatModel)
	case "gemini":
		return gemini.NewProvider(cfg.Keys.GoogleGemini, cfg.Ai.GeminiChatModel)
	case "huggingface":
		return huggingface.NewProvider(cfg.Keys.HuggingFace, cfg.Ai.HuggingFaceBaseURL, cfg.Ai.LLMModel)
	case "extractive":
		return extractive.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// NewChain builds the configured providers in order. Providers that cannot
// be constructed (usually a missing key) are skipped with a warning.
func NewChain(cfg *config.Config, log logger.ILogger) (*llm.Chain, error) {
	var providers []llm.NamedProvider
	for _, name := range cfg.Ai.LLMProviders {
		p, err := NewLLMProvider(name, cfg)
		if err != nil {
			log.Warn("LLM", "Skipping LLM provider", map[string]interface{}{
				"provider": name,
				"error":    err.Error(),
			})
			continue
		}
		providers = append(providers, llm.NamedProvider{Name: name, Provider: p})
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no usable LLM providers in %v", cfg.Ai.LLMProviders)
	}
	return llm.NewChain(log, providers...), nil
}
