package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookContent is one indexed chunk of a book.
type BookContent struct {
	Id              uuid.UUID
	BookId          string
	Title           string
	Content         string
	SourceReference string
	ChapterNumber   *int
	PageNumber      *int
	SectionTitle    *string
	Tags            []string
	ChunkIndex      int
	Embedding       []float32
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

type ContentChunk struct {
	Text            string
	SourceReference string
	RelevanceScore  *float64
	ContentId       string
}

// Relevance treats a missing score as zero.
func (c ContentChunk) Relevance() float64 {
	if c.RelevanceScore == nil {
		return 0
	}
	return *c.RelevanceScore
}

const (
	RetrievalMethodVector       = "vector_similarity"
	RetrievalMethodSelectedText = "selected_text_similarity"
)

type RetrievalMetadata struct {
	Method          string
	ConfidenceScore float64
	Timestamp       time.Time
}

type RetrievedContext struct {
	Id       uuid.UUID
	QueryId  uuid.UUID
	Chunks   []ContentChunk
	Metadata RetrievalMetadata
}

// IsEmpty reports whether the context carries no chunks.
func (c *RetrievedContext) IsEmpty() bool {
	return c == nil || len(c.Chunks) == 0
}

// Texts returns the chunk texts in context order.
func (c *RetrievedContext) Texts() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Chunks))
	for _, ch := range c.Chunks {
		out = append(out, ch.Text)
	}
	return out
}
