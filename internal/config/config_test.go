package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAG_MAX_QUERY_LENGTH", "")
	t.Setenv("LLM_PROVIDERS", "")

	cfg := Load()

	assert.Equal(t, 1000, cfg.Rag.MaxQueryLength)
	assert.Equal(t, 2000, cfg.Rag.MaxResponseLength)
	assert.Equal(t, 10, cfg.Rag.MinPassageLength)
	assert.Equal(t, 5, cfg.Rag.TopKFullCorpus)
	assert.Equal(t, 3, cfg.Rag.TopKSelectedPassage)
	assert.Equal(t, 30, cfg.Rag.ResponseTimeoutSeconds)
	assert.Equal(t, []string{"openai", "gemini"}, cfg.Ai.LLMProviders)
	assert.True(t, cfg.Rag.ValidateGrounding)
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "single", value: "ollama", want: []string{"ollama"}},
		{name: "trims and lowercases", value: " OpenAI , ollama ", want: []string{"openai", "ollama"}},
		{name: "drops blanks", value: "openai,,", want: []string{"openai"}},
		{name: "only separators falls back", value: ", ,", want: []string{"fallback"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.value)
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"fallback"}))
		})
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_INT", "not-a-number")

	assert.Equal(t, 0.25, getEnvAsFloat("TEST_FLOAT", 1))
	assert.False(t, getEnvAsBool("TEST_BOOL", true))
	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))
}
