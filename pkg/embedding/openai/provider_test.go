package openai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingsServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		data := make([]map[string]interface{}, 0, len(vectors))
		// Reversed to check the provider orders by index.
		for i := len(vectors) - 1; i >= 0; i-- {
			data = append(data, map[string]interface{}{"object": "embedding", "index": i, "embedding": vectors[i]})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": data, "model": "test"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateBatchKeepsInputOrder(t *testing.T) {
	srv := embeddingsServer(t, [][]float32{{1, 0}, {0, 1}})
	p, err := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "test"})
	require.NoError(t, err)

	out, err := p.GenerateBatch(context.Background(), []string{"a", "b"}, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{1, 0}, out[0].Embedding.Values)
	assert.Equal(t, []float32{0, 1}, out[1].Embedding.Values)
}

func TestNormalize(t *testing.T) {
	srv := embeddingsServer(t, [][]float32{{3, 4}})
	p, err := New(Config{BaseURL: srv.URL, KeyOptional: true, Normalize: true})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "a", "")
	require.NoError(t, err)
	v := out.Embedding.Values
	assert.InDelta(t, 1.0, math.Sqrt(float64(v[0]*v[0]+v[1]*v[1])), 1e-6)
}

func TestCountMismatchIsAnError(t *testing.T) {
	srv := embeddingsServer(t, [][]float32{{1, 0}})
	p, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.GenerateBatch(context.Background(), []string{"a", "b"}, "")
	assert.Error(t, err)
}

func TestKeyRequired(t *testing.T) {
	_, err := New(Config{Name: "jina"})
	assert.ErrorContains(t, err, "jina")
}
