package grounding

import (
	"context"
	"errors"
	"testing"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type mapEmbedder struct {
	vectors  map[string][]float32
	batchErr error
}

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return nil, errors.New("no vector")
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return out, nil
}

const (
	chunkText  = "Retrieval augmented generation combines a retriever with a generator."
	answerText = "It pairs a retriever with a generator model."
	queryText  = "What does retrieval augmented generation combine?"
)

func fixture() (*entity.Query, *entity.RetrievedContext, *entity.Response) {
	q := &entity.Query{Id: uuid.New(), Content: queryText}
	rc := &entity.RetrievedContext{Id: q.Id, QueryId: q.Id, Chunks: []entity.ContentChunk{{Text: chunkText}}}
	resp := &entity.Response{Id: uuid.New(), QueryId: q.Id, Content: answerText}
	return q, rc, resp
}

func TestSignalsGroundedTruthTable(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		s := Signals{
			LexicalOverlap: mask&1 != 0,
			Semantic:       mask&2 != 0,
			TermOverlap:    mask&4 != 0,
			Hallucination:  mask&8 != 0,
		}
		want := (s.LexicalOverlap || s.Semantic || s.TermOverlap) && !s.Hallucination
		assert.Equal(t, want, s.Grounded(), "signals %+v", s)
	}
}

func TestLexicalOverlap(t *testing.T) {
	texts := []string{"The RAG process involves three main steps: retrieval, augmentation and generation."}

	assert.True(t, LexicalOverlap("Indeed the RAG process involves three main steps.", texts))
	assert.False(t, LexicalOverlap("RAG has steps.", texts))
	assert.False(t, LexicalOverlap("a b c d e", []string{"a b c d e"}))
}

func TestTermOverlap(t *testing.T) {
	texts := []string{chunkText}

	assert.True(t, TermOverlap("retrieval and generation", texts))
	assert.False(t, TermOverlap("retrieval only", texts))
	assert.False(t, TermOverlap("those would", []string{"those would could"}))
}

func TestLengthCutoffsCountCharacters(t *testing.T) {
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		// nine characters, fourteen bytes
		{"short accented phrase", LexicalOverlap("é é é é é", []string{"é é é é é"}), false},
		{"long accented phrase", LexicalOverlap("éé éé éé éé éé", []string{"éé éé éé éé éé"}), true},
		// four characters, five bytes each
		{"four letter accented terms", TermOverlap("café niño", []string{"café niño"}), false},
		{"five letter accented terms", TermOverlap("cafés niños", []string{"cafés niños"}), true},
		// three characters, four bytes
		{"three letter fallback term", sharesTerm("olé", "olé"), false},
		{"four letter fallback term", sharesTerm("café", "café"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestValidateGroundingEmptyContextFails(t *testing.T) {
	v := NewValidator(&mapEmbedder{}, logger.NewNopLogger())
	q, _, resp := fixture()

	rc := &entity.RetrievedContext{Chunks: []entity.ContentChunk{{Text: "   "}}}
	assert.Equal(t, entity.ValidationFailed, v.ValidateGrounding(context.Background(), q, rc, resp))
	assert.Equal(t, entity.ValidationFailed, v.ValidateGrounding(context.Background(), q, nil, resp))
}

func TestValidateGroundingSignals(t *testing.T) {
	q, rc, resp := fixture()

	tests := []struct {
		name     string
		embedder *mapEmbedder
		want     entity.ValidationStatus
	}{
		{
			name: "semantic support",
			embedder: &mapEmbedder{vectors: map[string][]float32{
				answerText: {1, 0},
				chunkText:  {1, 0},
			}},
			want: entity.ValidationPassed,
		},
		{
			name: "answer embedding unavailable still passes on phrase overlap",
			embedder: &mapEmbedder{vectors: map[string][]float32{
				chunkText: {1, 0},
			}},
			want: entity.ValidationPassed,
		},
		{
			name: "no chunk embeddings fails closed",
			embedder: &mapEmbedder{
				vectors:  map[string][]float32{answerText: {1, 0}},
				batchErr: errors.New("down"),
			},
			want: entity.ValidationFailed,
		},
		{
			name: "divergent embeddings veto term overlap",
			embedder: &mapEmbedder{vectors: map[string][]float32{
				answerText: {1, 0},
				chunkText:  {0, 1},
			}},
			want: entity.ValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.embedder, logger.NewNopLogger())
			assert.Equal(t, tt.want, v.ValidateGrounding(context.Background(), q, rc, resp))
		})
	}
}

func TestZeroHallucinationNeverPassesFailedGrounding(t *testing.T) {
	q, rc, resp := fixture()
	v := NewValidator(&mapEmbedder{vectors: map[string][]float32{
		answerText: {1, 0},
		chunkText:  {0, 1},
		queryText:  {1, 0},
	}}, logger.NewNopLogger())

	assert.Equal(t, entity.ValidationFailed, v.ValidateGrounding(context.Background(), q, rc, resp))
	assert.False(t, v.ValidateZeroHallucination(context.Background(), q, resp, rc))

	report := v.Validate(context.Background(), q, resp, rc)
	assert.Equal(t, entity.ValidationFailed, report.Status())
	assert.False(t, report.ZeroHallucination)
}

func TestZeroHallucinationQueryCoverage(t *testing.T) {
	q, rc, resp := fixture()

	tests := []struct {
		name    string
		vectors map[string][]float32
		want    bool
	}{
		{
			name:    "query and answer similar",
			vectors: map[string][]float32{answerText: {1, 0}, chunkText: {1, 0}, queryText: {1, 0.1}},
			want:    true,
		},
		{
			name:    "query and answer unrelated",
			vectors: map[string][]float32{answerText: {1, 0}, chunkText: {1, 0}, queryText: {0, 1}},
			want:    false,
		},
		{
			name:    "query embedding missing falls back to shared terms",
			vectors: map[string][]float32{answerText: {1, 0}, chunkText: {1, 0}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&mapEmbedder{vectors: tt.vectors}, logger.NewNopLogger())
			assert.Equal(t, tt.want, v.ValidateZeroHallucination(context.Background(), q, resp, rc))
		})
	}
}

func TestConsistencyIsPermissive(t *testing.T) {
	v := NewValidator(&mapEmbedder{}, logger.NewNopLogger())
	rc := &entity.RetrievedContext{Chunks: []entity.ContentChunk{{Text: "This is never false."}}}
	resp := &entity.Response{Id: uuid.New(), Content: "It is always true and correct."}

	assert.True(t, v.consistent(resp, rc))
}
