package contract

import (
	"context"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredBookContent wraps BookContent with its cosine similarity to the probe vector.
type ScoredBookContent struct {
	Content    *entity.BookContent
	Similarity float64
}

type BookContentRepository interface {
	Upsert(ctx context.Context, content *entity.BookContent) error
	UpsertBulk(ctx context.Context, contents []*entity.BookContent) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByBookId(ctx context.Context, bookId string) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookContent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookContent, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredBookContent, error)
}
