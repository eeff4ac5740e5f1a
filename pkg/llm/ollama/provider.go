// Package ollama reaches a local Ollama server through its OpenAI-compatible API.
package ollama

import (
	"strings"

	"book-rag-be/pkg/llm/openai"
)

const DefaultBaseURL = "http://localhost:11434"

func NewProvider(baseURL, model string) (*openai.Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = "llama3"
	}
	return openai.New(openai.Config{
		Name:            "ollama",
		BaseURL:         strings.TrimRight(baseURL, "/") + "/v1",
		Model:           model,
		KeyOptional:     true,
		LegacyMaxTokens: true,
	})
}
