// Package jina embeds with Jina AI, whose embeddings API follows the OpenAI
// request and response shape.
package jina

import (
	"book-rag-be/pkg/embedding/openai"
)

const (
	DefaultBaseURL = "https://api.jina.ai/v1"
	// 768 dimensions, matching the default index.
	DefaultModel = "jina-embeddings-v2-base-en"
)

func NewProvider(apiKey string) (*openai.OpenAIProvider, error) {
	return openai.New(openai.Config{
		Name:    "jina",
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
	})
}
