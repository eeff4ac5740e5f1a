package corpus

import (
	"context"
	"testing"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIdsAreStable(t *testing.T) {
	assert.Equal(t, SampleId("rag-definition"), SampleId("rag-definition"))
	assert.NotEqual(t, SampleId("rag-definition"), SampleId("rag-retrieval"))
}

func TestLoadIsIdempotent(t *testing.T) {
	gateway := embedding.NewGateway(logger.NewNopLogger(), []embedding.NamedProvider{
		{Name: "hashing", Provider: embedding.NewHashingProvider(128)},
	})
	idx := vectorindex.NewMemoryIndex()

	n, err := Load(context.Background(), gateway, idx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Load(context.Background(), gateway, idx)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
}
