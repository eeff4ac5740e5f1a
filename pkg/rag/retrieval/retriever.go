package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/vectorindex"
)

const moduleName = "RETRIEVER"

const (
	DefaultTopKFullCorpus      = 5
	DefaultTopKSelectedPassage = 3

	// Hits found near the passage must also be this close to the question.
	queryRelevanceThreshold = 0.3
	// Mean chunk relevance below this fails the context gate.
	minMeanRelevance = 0.1
)

var (
	ErrEmbeddingUnavailable = errors.New("retrieval: embedding unavailable")
	ErrIndexUnavailable     = errors.New("retrieval: vector index unavailable")
	ErrMissingPassage       = errors.New("retrieval: selected passage is required")
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Retriever struct {
	embedder Embedder
	index    vectorindex.Index
	logger   logger.ILogger
	now      func() time.Time
}

func NewRetriever(embedder Embedder, index vectorindex.Index, log logger.ILogger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   log,
		now:      time.Now,
	}
}

// RetrieveFullCorpus embeds the question and returns its nearest chunks.
// A context with no chunks means nothing relevant was found.
func (r *Retriever) RetrieveFullCorpus(ctx context.Context, query *entity.Query, topK int) (*entity.RetrievedContext, error) {
	if topK <= 0 {
		topK = DefaultTopKFullCorpus
	}

	probe, err := r.embedder.Embed(ctx, query.Content)
	if err != nil {
		r.logger.Error(moduleName, "Failed to embed query", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	hits, err := r.index.Search(ctx, probe, topK)
	if err != nil {
		r.logger.Error(moduleName, "Vector search failed", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	rc := r.assemble(query, hits, entity.RetrievalMethodVector)
	r.logger.Info(moduleName, "Retrieved full corpus context", map[string]interface{}{
		"query_id":   query.Id.String(),
		"chunks":     len(rc.Chunks),
		"confidence": rc.Metadata.ConfidenceScore,
	})
	return rc, nil
}

// RetrieveForSelectedPassage searches near the passage, then keeps only the
// hits that are also close to the question itself.
func (r *Retriever) RetrieveForSelectedPassage(ctx context.Context, query *entity.Query, topK int) (*entity.RetrievedContext, error) {
	passage, ok := query.Passage()
	if !ok {
		return nil, ErrMissingPassage
	}
	if topK <= 0 {
		topK = DefaultTopKSelectedPassage
	}

	queryVec, err := r.embedder.Embed(ctx, query.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrEmbeddingUnavailable, err)
	}
	passageVec, err := r.embedder.Embed(ctx, passage)
	if err != nil {
		return nil, fmt.Errorf("%w: passage: %v", ErrEmbeddingUnavailable, err)
	}

	hits, err := r.index.Search(ctx, passageVec, topK)
	if err != nil {
		r.logger.Error(moduleName, "Vector search failed", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	kept := hits[:0:0]
	if len(hits) > 0 {
		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = h.Text
		}
		vecs, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			r.logger.Warn(moduleName, "Could not re-embed passage hits", map[string]interface{}{
				"query_id": query.Id.String(),
				"error":    err.Error(),
			})
		}
		for i, h := range hits {
			if i >= len(vecs) || vecs[i] == nil {
				continue
			}
			if embedding.CosineSimilarity(queryVec, vecs[i]) > queryRelevanceThreshold {
				kept = append(kept, h)
			}
		}
	}

	rc := r.assemble(query, kept, entity.RetrievalMethodSelectedText)
	r.logger.Info(moduleName, "Retrieved selected passage context", map[string]interface{}{
		"query_id": query.Id.String(),
		"searched": len(hits),
		"kept":     len(kept),
	})
	return rc, nil
}

// RetrieveByMode falls back to the full corpus when the mode is unknown or
// a passage is missing.
func (r *Retriever) RetrieveByMode(ctx context.Context, query *entity.Query, topK int) (*entity.RetrievedContext, error) {
	if query.ContextMode == entity.ContextModeSelectedPassage {
		if _, ok := query.Passage(); ok {
			return r.RetrieveForSelectedPassage(ctx, query, topK)
		}
	}
	return r.RetrieveFullCorpus(ctx, query, topK)
}

// ValidateContext is the coarse quality gate run before generation.
func (r *Retriever) ValidateContext(rc *entity.RetrievedContext, minChunks int) bool {
	ok, reason := ValidateContext(rc, minChunks)
	if !ok {
		details := map[string]interface{}{"reason": reason}
		if rc != nil {
			details["query_id"] = rc.QueryId.String()
			details["chunks"] = len(rc.Chunks)
		}
		r.logger.Warn(moduleName, "Retrieved context failed quality gate", details)
	}
	return ok
}

// ValidateContext reports whether rc has at least minChunks chunks and a
// mean relevance of at least 0.1. Missing scores count as zero.
func ValidateContext(rc *entity.RetrievedContext, minChunks int) (bool, string) {
	if minChunks < 1 {
		minChunks = 1
	}
	if rc.IsEmpty() {
		return false, "no chunks"
	}
	if len(rc.Chunks) < minChunks {
		return false, fmt.Sprintf("%d chunks, need %d", len(rc.Chunks), minChunks)
	}
	var sum float64
	for _, c := range rc.Chunks {
		sum += c.Relevance()
	}
	if mean := sum / float64(len(rc.Chunks)); mean < minMeanRelevance {
		return false, fmt.Sprintf("mean relevance %.3f", mean)
	}
	return true, ""
}

func (r *Retriever) assemble(query *entity.Query, hits []vectorindex.Hit, method string) *entity.RetrievedContext {
	ordered := make([]vectorindex.Hit, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })

	chunks := make([]entity.ContentChunk, 0, len(ordered))
	for _, h := range ordered {
		score := clamp01(h.Score)
		chunks = append(chunks, entity.ContentChunk{
			Text:            h.Text,
			SourceReference: AnnotateLocator(h.SourceReference, h.Metadata),
			RelevanceScore:  &score,
			ContentId:       h.ContentId,
		})
	}

	var confidence float64
	if len(chunks) > 0 {
		confidence = chunks[0].Relevance()
	}

	return &entity.RetrievedContext{
		Id:      query.Id,
		QueryId: query.Id,
		Chunks:  chunks,
		Metadata: entity.RetrievalMetadata{
			Method:          method,
			ConfidenceScore: confidence,
			Timestamp:       r.now(),
		},
	}
}

// AnnotateLocator appends the page, chapter and section suffixes to a stored
// locator. It always starts from the stored value, so calling it again on
// the same hit yields the same string.
func AnnotateLocator(base string, md vectorindex.Metadata) string {
	var b strings.Builder
	b.WriteString(base)
	if md.PageNumber != nil {
		fmt.Fprintf(&b, " (Page: %d)", *md.PageNumber)
	}
	if md.Chapter != nil && strings.TrimSpace(*md.Chapter) != "" {
		fmt.Fprintf(&b, " (Chapter: %s)", *md.Chapter)
	}
	if md.SectionTitle != nil && strings.TrimSpace(*md.SectionTitle) != "" {
		fmt.Fprintf(&b, " (Section: %s)", *md.SectionTitle)
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
