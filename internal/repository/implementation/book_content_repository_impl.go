package implementation

import (
	"context"
	"errors"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/mapper"
	"book-rag-be/internal/model"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookContentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BookContentMapper
}

func NewBookContentRepository(db *gorm.DB, log logger.ILogger) contract.BookContentRepository {
	return &BookContentRepositoryImpl{
		db:     db,
		mapper: mapper.NewBookContentMapper(log),
	}
}

func (r *BookContentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

var bookContentUpsertColumns = []string{
	"book_id", "title", "content", "source_reference", "chapter_number",
	"page_number", "section_title", "tags", "chunk_index", "embedding", "updated_at",
}

func (r *BookContentRepositoryImpl) Upsert(ctx context.Context, content *entity.BookContent) error {
	m := r.mapper.ToModel(content)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(bookContentUpsertColumns),
		}).
		Create(m).Error
	if err != nil {
		return translateError(err)
	}
	*content = *r.mapper.ToEntity(m)
	return nil
}

func (r *BookContentRepositoryImpl) UpsertBulk(ctx context.Context, contents []*entity.BookContent) error {
	if len(contents) == 0 {
		return nil
	}
	models := make([]*model.BookContent, len(contents))
	for i, c := range contents {
		models[i] = r.mapper.ToModel(c)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(bookContentUpsertColumns),
		}).
		Create(models).Error
	if err != nil {
		return translateError(err)
	}
	for i, m := range models {
		*contents[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *BookContentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.BookContent{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BookContentRepositoryImpl) DeleteByBookId(ctx context.Context, bookId string) (int64, error) {
	res := r.applySpecifications(r.db.WithContext(ctx), specification.ByBookID{BookID: bookId}).Delete(&model.BookContent{})
	return res.RowsAffected, res.Error
}

func (r *BookContentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookContent, error) {
	var m model.BookContent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BookContentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookContent, error) {
	var models []*model.BookContent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.BookContent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *BookContentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.BookContent{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore ranks chunks by cosine similarity, 1 - (embedding <=> probe).
func (r *BookContentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredBookContent, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.BookContent
		Similarity float64
	}
	var results []result

	probe := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("book_contents").
		Select("book_contents.*, 1 - (embedding <=> ?) as similarity", probe).
		Where("deleted_at IS NULL").
		Where("1 - (embedding <=> ?) > ?", probe, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBookContent, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredBookContent{
			Content:    r.mapper.ToEntity(&res.BookContent),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
