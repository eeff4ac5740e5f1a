package retrieval

import (
	"context"
	"errors"
	"testing"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return nil, errors.New("no vector")
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return out, nil
}

type failingIndex struct{}

func (failingIndex) Upsert(ctx context.Context, records ...vectorindex.Record) error { return nil }
func (failingIndex) Delete(ctx context.Context, id string) (bool, error)          { return false, nil }
func (failingIndex) DeleteBook(ctx context.Context, bookId string) (int64, error) { return 0, nil }
func (failingIndex) Search(ctx context.Context, v []float32, k int) ([]vectorindex.Hit, error) {
	return nil, errors.New("connection refused")
}

func intPtr(n int) *int         { return &n }
func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func newQuery(content string) *entity.Query {
	return &entity.Query{Id: uuid.New(), SessionId: uuid.New(), Content: content, ContextMode: entity.ContextModeFullCorpus}
}

func seededIndex(t *testing.T) *vectorindex.MemoryIndex {
	idx := vectorindex.NewMemoryIndex()
	require.NoError(t, idx.Upsert(context.Background(),
		vectorindex.Record{Id: "far", Text: "far text", SourceReference: "Chapter 2", Vector: []float32{0.2, 1}},
		vectorindex.Record{
			Id: "near", Text: "near text", SourceReference: "Chapter 1, Page 1", Vector: []float32{1, 0},
			Metadata: vectorindex.Metadata{PageNumber: intPtr(1), Chapter: strPtr("1"), SectionTitle: strPtr("What is RAG?")},
		},
		vectorindex.Record{Id: "mid", Text: "mid text", SourceReference: "Chapter 1, Page 2", Vector: []float32{1, 1}},
	))
	return idx
}

func TestRetrieveFullCorpusOrdersAndAnnotates(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{"question": {1, 0}}}
	r := NewRetriever(emb, seededIndex(t), logger.NewNopLogger())
	q := newQuery("question")

	rc, err := r.RetrieveFullCorpus(context.Background(), q, 5)
	require.NoError(t, err)
	require.Len(t, rc.Chunks, 3)

	for i := 1; i < len(rc.Chunks); i++ {
		assert.GreaterOrEqual(t, rc.Chunks[i-1].Relevance(), rc.Chunks[i].Relevance())
	}
	assert.Equal(t, "near", rc.Chunks[0].ContentId)
	assert.Equal(t, "Chapter 1, Page 1 (Page: 1) (Chapter: 1) (Section: What is RAG?)", rc.Chunks[0].SourceReference)
	assert.Equal(t, entity.RetrievalMethodVector, rc.Metadata.Method)
	assert.InDelta(t, rc.Chunks[0].Relevance(), rc.Metadata.ConfidenceScore, 1e-9)
	assert.Equal(t, q.Id, rc.QueryId)

	again, err := r.RetrieveFullCorpus(context.Background(), q, 5)
	require.NoError(t, err)
	assert.Equal(t, rc.Chunks[0].SourceReference, again.Chunks[0].SourceReference)
}

func TestRetrieveFullCorpusFailures(t *testing.T) {
	q := newQuery("question")

	r := NewRetriever(&mapEmbedder{}, seededIndex(t), logger.NewNopLogger())
	_, err := r.RetrieveFullCorpus(context.Background(), q, 5)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	emb := &mapEmbedder{vectors: map[string][]float32{"question": {1, 0}}}
	r = NewRetriever(emb, failingIndex{}, logger.NewNopLogger())
	_, err = r.RetrieveFullCorpus(context.Background(), q, 5)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestRetrieveForSelectedPassageFiltersByQuestion(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{
		"question":    {0, 1},
		"the passage": {1, 0},
		"near text":   {1, 0},
		"mid text":    {1, 1},
		"far text":    {0.2, 1},
	}}
	r := NewRetriever(emb, seededIndex(t), logger.NewNopLogger())
	q := newQuery("question")
	q.ContextMode = entity.ContextModeSelectedPassage
	q.SelectedText = strPtr("the passage")

	rc, err := r.RetrieveForSelectedPassage(context.Background(), q, 3)
	require.NoError(t, err)
	assert.Equal(t, entity.RetrievalMethodSelectedText, rc.Metadata.Method)

	ids := make([]string, 0, len(rc.Chunks))
	for _, c := range rc.Chunks {
		ids = append(ids, c.ContentId)
	}
	assert.ElementsMatch(t, []string{"mid", "far"}, ids)
}

func TestRetrieveByModeFallsBackToFullCorpus(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{"question": {1, 0}}}
	r := NewRetriever(emb, seededIndex(t), logger.NewNopLogger())
	q := newQuery("question")
	q.ContextMode = entity.ContextModeSelectedPassage

	rc, err := r.RetrieveByMode(context.Background(), q, 5)
	require.NoError(t, err)
	assert.Equal(t, entity.RetrievalMethodVector, rc.Metadata.Method)

	_, err = r.RetrieveForSelectedPassage(context.Background(), q, 3)
	assert.ErrorIs(t, err, ErrMissingPassage)
}

func TestValidateContext(t *testing.T) {
	chunk := func(score *float64) entity.ContentChunk {
		return entity.ContentChunk{Text: "t", SourceReference: "r", RelevanceScore: score}
	}

	tests := []struct {
		name      string
		rc        *entity.RetrievedContext
		minChunks int
		want      bool
	}{
		{name: "nil", rc: nil, minChunks: 1, want: false},
		{name: "empty", rc: &entity.RetrievedContext{}, minChunks: 1, want: false},
		{name: "too few", rc: &entity.RetrievedContext{Chunks: []entity.ContentChunk{chunk(f64Ptr(0.9))}}, minChunks: 2, want: false},
		{name: "boundary mean", rc: &entity.RetrievedContext{Chunks: []entity.ContentChunk{chunk(f64Ptr(0.1))}}, minChunks: 1, want: true},
		{name: "low mean", rc: &entity.RetrievedContext{Chunks: []entity.ContentChunk{chunk(f64Ptr(0.15)), chunk(nil)}}, minChunks: 1, want: false},
		{name: "healthy", rc: &entity.RetrievedContext{Chunks: []entity.ContentChunk{chunk(f64Ptr(0.5)), chunk(f64Ptr(0.2))}}, minChunks: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ValidateContext(tt.rc, tt.minChunks)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotateLocatorSkipsMissingParts(t *testing.T) {
	assert.Equal(t, "Intro", AnnotateLocator("Intro", vectorindex.Metadata{}))
	assert.Equal(t, "Intro (Section: Basics)", AnnotateLocator("Intro", vectorindex.Metadata{SectionTitle: strPtr("Basics")}))
}
