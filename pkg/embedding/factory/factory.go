package factory

import (
	"fmt"

	"book-rag-be/internal/config"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/embedding/gemini"
	"book-rag-be/pkg/embedding/jina"
	"book-rag-be/pkg/embedding/ollama"
	"book-rag-be/pkg/embedding/openai"
)

func NewEmbeddingProvider(providerType string, cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	case "gemini":
		return gemini.NewProvider(cfg.Keys.GoogleGemini, "")
	case "jina":
		return jina.NewProvider(cfg.Keys.Jina)
	case "openai":
		return openai.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIEmbeddingModel, cfg.Ai.EmbeddingDimension)
	case "hashing":
		return embedding.NewHashingProvider(cfg.Ai.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}

// NewProviderChain builds every configured provider, in order.
func NewProviderChain(cfg *config.Config) ([]embedding.NamedProvider, error) {
	var chain []embedding.NamedProvider
	for _, name := range cfg.Ai.EmbeddingProviders {
		p, err := NewEmbeddingProvider(name, cfg)
		if err != nil {
			return nil, err
		}
		chain = append(chain, embedding.NamedProvider{Name: name, Provider: p})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no embedding providers configured")
	}
	return chain, nil
}
