package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Equal(t, []string{"short text"}, SplitText("short text", 100, 10))
	assert.Nil(t, SplitText("   ", 100, 10))
}

func TestSplitTextCoversInputWithOverlap(t *testing.T) {
	words := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := SplitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplitTextDoesNotLoopOnLargeOverlap(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := SplitText(text, 100, 500)
	assert.Len(t, chunks, 10)
}

func TestContentTokens(t *testing.T) {
	assert.Equal(t, []string{"rag", "system"}, ContentTokens("What is a RAG system?"))
	assert.Equal(t, []string{"retrieval", "augmented", "generation"}, Tokenize("Retrieval-Augmented Generation"))
}
