package vectorindex

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// PgVectorIndex keeps vectors in the book_contents table and searches with
// the pgvector cosine operator.
type PgVectorIndex struct {
	factory  unitofwork.RepositoryFactory
	minScore float64
}

var _ Index = (*PgVectorIndex)(nil)

func NewPgVectorIndex(factory unitofwork.RepositoryFactory, minScore float64) *PgVectorIndex {
	return &PgVectorIndex{factory: factory, minScore: minScore}
}

func (p *PgVectorIndex) Upsert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	contents := make([]*entity.BookContent, 0, len(records))
	now := time.Now()
	for _, r := range records {
		id, err := uuid.Parse(r.Id)
		if err != nil {
			return fmt.Errorf("vectorindex: invalid id %q: %w", r.Id, err)
		}
		contents = append(contents, &entity.BookContent{
			Id:              id,
			BookId:          r.BookId,
			Title:           r.Title,
			Content:         r.Text,
			SourceReference: r.SourceReference,
			ChapterNumber:   chapterNumber(r.Metadata.Chapter),
			PageNumber:      r.Metadata.PageNumber,
			SectionTitle:    r.Metadata.SectionTitle,
			Tags:            r.Tags,
			ChunkIndex:      r.ChunkIndex,
			Embedding:       r.Vector,
			CreatedAt:       now,
			UpdatedAt:       &now,
		})
	}

	uow := p.factory.NewUnitOfWork(ctx)
	return uow.BookContentRepository().UpsertBulk(ctx, contents)
}

func (p *PgVectorIndex) Delete(ctx context.Context, id string) (bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	uow := p.factory.NewUnitOfWork(ctx)
	return uow.BookContentRepository().Delete(ctx, parsed)
}

func (p *PgVectorIndex) DeleteBook(ctx context.Context, bookId string) (int64, error) {
	uow := p.factory.NewUnitOfWork(ctx)
	return uow.BookContentRepository().DeleteByBookId(ctx, bookId)
}

func (p *PgVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	uow := p.factory.NewUnitOfWork(ctx)
	scored, err := uow.BookContentRepository().SearchSimilarWithScore(ctx, vector, k, p.minScore)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		c := s.Content
		h := Hit{
			ContentId:       c.Id.String(),
			Text:            c.Content,
			SourceReference: c.SourceReference,
			Score:           s.Similarity,
			Metadata: Metadata{
				PageNumber:   c.PageNumber,
				SectionTitle: c.SectionTitle,
			},
		}
		if c.ChapterNumber != nil {
			ch := strconv.Itoa(*c.ChapterNumber)
			h.Metadata.Chapter = &ch
		}
		if usable(h) {
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func chapterNumber(ch *string) *int {
	if ch == nil {
		return nil
	}
	n, err := strconv.Atoi(*ch)
	if err != nil {
		return nil
	}
	return &n
}
