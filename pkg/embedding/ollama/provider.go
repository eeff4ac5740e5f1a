// Package ollama embeds with a local Ollama model through its
// OpenAI-compatible /v1/embeddings endpoint.
package ollama

import (
	"strings"

	"book-rag-be/pkg/embedding/openai"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
)

// NewProvider normalizes vectors because Ollama returns raw model output
// and the pgvector index ranks by cosine distance.
func NewProvider(baseURL, model string) (*openai.OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return openai.New(openai.Config{
		Name:        "ollama",
		BaseURL:     strings.TrimRight(baseURL, "/") + "/v1",
		Model:       model,
		KeyOptional: true,
		Normalize:   true,
	})
}
