// Package vectorindex stores chunk vectors and answers nearest-neighbour
// queries. Scores are cosine similarities, most relevant first.
package vectorindex

import (
	"context"
	"math"
	"strings"
)

// Metadata carries the optional locator parts stored alongside a chunk.
type Metadata struct {
	PageNumber   *int
	Chapter      *string
	SectionTitle *string
}

// Hit is one search result.
type Hit struct {
	ContentId       string
	Text            string
	SourceReference string
	Score           float64
	Metadata        Metadata
}

// Record is what gets upserted.
type Record struct {
	Id              string
	BookId          string
	Title           string
	Text            string
	SourceReference string
	ChunkIndex      int
	Tags            []string
	Vector          []float32
	Metadata        Metadata
}

type Index interface {
	Upsert(ctx context.Context, records ...Record) error
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteBook removes every chunk of a book and reports how many went.
	DeleteBook(ctx context.Context, bookId string) (int64, error)
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
}

// usable drops hits that cannot be turned into context.
func usable(h Hit) bool {
	if strings.TrimSpace(h.Text) == "" {
		return false
	}
	return !math.IsNaN(h.Score) && !math.IsInf(h.Score, 0)
}
