// Package huggingface uses the Hugging Face inference router, which speaks
// the OpenAI chat completions protocol.
package huggingface

import (
	"book-rag-be/pkg/llm/openai"
)

const DefaultBaseURL = "https://router.huggingface.co/v1"

func NewProvider(apiKey, baseURL, model string) (*openai.Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return openai.New(openai.Config{
		Name:             "huggingface",
		APIKey:           apiKey,
		BaseURL:          baseURL,
		Model:            model,
		LegacyMaxTokens:  true,
		DefaultMaxTokens: 500,
	})
}
