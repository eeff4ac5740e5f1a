package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/rag/guard"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	out     string
	err     error
	history []llm.Message
	opts    llm.Options
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.history = history
	s.opts = llm.Apply(llm.Options{}, options...)
	return s.out, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, options...)
}

func score(f float64) *float64 { return &f }

func newGenerator(l llm.LLMProvider) *Generator {
	return NewGenerator(l, guard.New(guard.DefaultLimits()), DefaultOptions(), logger.NewNopLogger())
}

func sampleContext(queryId uuid.UUID) *entity.RetrievedContext {
	return &entity.RetrievedContext{
		Id:      queryId,
		QueryId: queryId,
		Chunks: []entity.ContentChunk{
			{Text: "RAG combines retrieval and generation.", SourceReference: "Chapter 1, Page 1 (Page: 1) (Chapter: 1)", RelevanceScore: score(0.9), ContentId: "chunk-1"},
			{Text: strings.Repeat("long ", 60), SourceReference: "Appendix", RelevanceScore: score(0.4)},
		},
	}
}

func TestGenerateBuildsReferencesPerChunk(t *testing.T) {
	l := &scriptedLLM{out: "  RAG combines retrieval and generation.  "}
	g := newGenerator(l)
	q := &entity.Query{Id: uuid.New(), Content: "What is RAG?"}
	rc := sampleContext(q.Id)

	resp, err := g.Generate(context.Background(), q, rc)
	require.NoError(t, err)

	assert.Equal(t, "RAG combines retrieval and generation.", resp.Content)
	assert.Equal(t, entity.ValidationPending, resp.ValidationStatus)
	assert.Equal(t, q.Id, resp.QueryId)
	require.Len(t, resp.SourceReferences, 2)

	first := resp.SourceReferences[0]
	require.NotNil(t, first.PageNumber)
	assert.Equal(t, 1, *first.PageNumber)
	require.NotNil(t, first.Chapter)
	assert.Equal(t, "1", *first.Chapter)
	assert.Nil(t, first.Section)
	assert.Equal(t, "chunk-1", *first.ContentId)
	assert.InDelta(t, 0.9, *first.RelevanceScore, 1e-9)

	second := resp.SourceReferences[1]
	assert.Equal(t, q.Id.String(), *second.ContentId)
	assert.True(t, strings.HasSuffix(second.Text, "..."))
	assert.Equal(t, 203, len([]rune(second.Text)))

	require.Len(t, l.history, 2)
	assert.Equal(t, llm.RoleSystem, l.history[0].Role)
	assert.Contains(t, l.history[1].Content, "RAG combines retrieval and generation.\n\n"+strings.Repeat("long ", 60))
	assert.Equal(t, 500, l.opts.MaxTokens)
	assert.InDelta(t, 0.3, l.opts.Temperature, 1e-9)
}

func TestGenerateFailures(t *testing.T) {
	q := &entity.Query{Id: uuid.New(), Content: "What is RAG?"}

	_, err := newGenerator(&scriptedLLM{err: errors.New("quota")}).Generate(context.Background(), q, sampleContext(q.Id))
	assert.ErrorIs(t, err, ErrGenerationFailed)

	_, err = newGenerator(&scriptedLLM{out: "   "}).Generate(context.Background(), q, sampleContext(q.Id))
	assert.ErrorIs(t, err, ErrGenerationFailed)

	_, err = newGenerator(&scriptedLLM{out: "x"}).Generate(context.Background(), q, &entity.RetrievedContext{})
	assert.ErrorIs(t, err, ErrEmptyContext)
}

func TestGenerateFromSelectedPassage(t *testing.T) {
	l := &scriptedLLM{out: "It is about retrieval."}
	q := &entity.Query{Id: uuid.New(), Content: "What is this about?"}

	resp, err := newGenerator(l).GenerateFromSelectedPassage(context.Background(), q, "Retrieval finds relevant passages.")
	require.NoError(t, err)
	require.Len(t, resp.SourceReferences, 1)

	ref := resp.SourceReferences[0]
	assert.Equal(t, PassageReference, ref.Reference)
	assert.Equal(t, "Retrieval finds relevant passages.", ref.Text)
	assert.InDelta(t, 1.0, *ref.RelevanceScore, 1e-9)
	assert.Nil(t, ref.PageNumber)
	assert.Nil(t, ref.Chapter)
	assert.Nil(t, ref.Section)
	assert.Contains(t, l.history[1].Content, "Selected Text:\nRetrieval finds relevant passages.")
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		locator string
		page    *int
		chapter string
		section string
	}{
		{locator: "Chapter 3, Page 45", page: intPtr(45), chapter: "3"},
		{locator: "chapter:IV section 2.1", chapter: "IV", section: "2.1"},
		{locator: "Intro (Section: Basics)", section: "Basics"},
		{locator: "no locator parts"},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			page, chapter, section := ParseLocator(tt.locator)
			assert.Equal(t, tt.page, page)
			if tt.chapter == "" {
				assert.Nil(t, chapter)
			} else {
				require.NotNil(t, chapter)
				assert.Equal(t, tt.chapter, *chapter)
			}
			if tt.section == "" {
				assert.Nil(t, section)
			} else {
				require.NotNil(t, section)
				assert.Equal(t, tt.section, *section)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestScoreContentValidity(t *testing.T) {
	g := newGenerator(&scriptedLLM{})
	rc := &entity.RetrievedContext{Chunks: []entity.ContentChunk{
		{Text: "Retrieval augmented generation combines a retriever with a generator to answer questions well"},
	}}
	ref := []entity.SourceReference{{Reference: "Chapter 1", Text: "Retrieval augmented"}}

	tests := []struct {
		name string
		resp *entity.Response
		want entity.ValidationStatus
	}{
		{name: "mentions context", resp: &entity.Response{Content: "It uses a retriever.", SourceReferences: ref}, want: entity.ValidationPassed},
		{name: "unrelated", resp: &entity.Response{Content: "Yes.", SourceReferences: ref}, want: entity.ValidationFailed},
		{name: "empty content", resp: &entity.Response{Content: "", SourceReferences: ref}, want: entity.ValidationFailed},
		{name: "bad reference", resp: &entity.Response{Content: "It uses a retriever.", SourceReferences: []entity.SourceReference{{Text: "x"}}}, want: entity.ValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.ScoreContentValidity(tt.resp, rc))
		})
	}
}

func TestFixedResponse(t *testing.T) {
	q := &entity.Query{Id: uuid.New()}
	resp := newGenerator(&scriptedLLM{}).FixedResponse(q, AbstainMessage, entity.ValidationPassed)
	assert.Equal(t, AbstainMessage, resp.Content)
	assert.Equal(t, entity.ValidationPassed, resp.ValidationStatus)
	assert.Empty(t, resp.SourceReferences)
}
