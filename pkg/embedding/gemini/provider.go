// Package gemini embeds through Google's OpenAI-compatible Gemini endpoint.
package gemini

import (
	"book-rag-be/pkg/embedding/openai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "text-embedding-004"
)

func NewProvider(apiKey, model string) (*openai.OpenAIProvider, error) {
	if model == "" {
		model = DefaultModel
	}
	return openai.New(openai.Config{
		Name:    "gemini",
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Model:   model,
	})
}
