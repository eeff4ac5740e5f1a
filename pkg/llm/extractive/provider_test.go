package extractive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePicksOverlappingSentences(t *testing.T) {
	prompt := "Context:\nRAG combines retrieval with generation. Bananas are yellow.\n\nQuestion: What does RAG combine?\n\nAnswer:"

	out, err := NewProvider().Generate(context.Background(), prompt)
	require.NoError(t, err)
	assert.Contains(t, out, "RAG combines retrieval with generation.")
}

func TestGenerateWithoutContext(t *testing.T) {
	out, err := NewProvider().Generate(context.Background(), "Context:\n\nQuestion: anything\n\nAnswer:")
	require.NoError(t, err)
	assert.Empty(t, out)
}
