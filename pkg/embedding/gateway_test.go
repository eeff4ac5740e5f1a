package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"book-rag-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return newEmbeddingResponse(s.vec), nil
}

type stubBatchProvider struct {
	stubProvider
	batchErr   error
	batchCalls atomic.Int32
}

func (s *stubBatchProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error) {
	s.batchCalls.Add(1)
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([]*EmbeddingResponse, len(texts))
	for i := range texts {
		out[i] = newEmbeddingResponse(s.vec)
	}
	return out, nil
}

func TestGatewayEmbedFallsBackInOrder(t *testing.T) {
	first := &stubProvider{err: errors.New("quota exceeded")}
	second := &stubProvider{vec: []float32{1, 0}}
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{
		{Name: "first", Provider: first},
		{Name: "second", Provider: second},
	})

	v, err := g.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.EqualValues(t, 1, first.calls.Load())
	assert.EqualValues(t, 1, second.calls.Load())
}

func TestGatewayEmbedAllFail(t *testing.T) {
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{
		{Name: "only", Provider: &stubProvider{err: errors.New("down")}},
	})

	_, err := g.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoVector)

	_, err = g.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestGatewayRejectsWrongDimension(t *testing.T) {
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{
		{Name: "short", Provider: &stubProvider{vec: []float32{1, 2}}},
	}, WithDimension(3))

	_, err := g.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestGatewayEmbedBatchUsesBatchProvider(t *testing.T) {
	bp := &stubBatchProvider{stubProvider: stubProvider{vec: []float32{0, 1}}}
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{{Name: "batch", Provider: bp}})

	out, err := g.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.EqualValues(t, 1, bp.batchCalls.Load())
	assert.EqualValues(t, 0, bp.calls.Load())
}

func TestGatewayEmbedBatchFallsBackPerItem(t *testing.T) {
	bp := &stubBatchProvider{batchErr: errors.New("batch unsupported")}
	bp.err = errors.New("single also down")
	single := &stubProvider{vec: []float32{1, 1}}
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{
		{Name: "batch", Provider: bp},
		{Name: "single", Provider: single},
	})

	out, err := g.EmbedBatch(context.Background(), []string{"a", "", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, out[0])
	assert.Nil(t, out[1])
	assert.Equal(t, []float32{1, 1}, out[2])
	assert.EqualValues(t, 2, single.calls.Load())
}

func TestGatewayCacheAvoidsRepeatCalls(t *testing.T) {
	p := &stubProvider{vec: []float32{1, 0}}
	g := NewGateway(logger.NewNopLogger(), []NamedProvider{{Name: "p", Provider: p}}, WithCache(time.Minute))

	for i := 0; i < 3; i++ {
		_, err := g.Embed(context.Background(), "same text")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, p.calls.Load())
}
