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
	"gorm.io/gorm"
)

type QueryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewQueryRepository(db *gorm.DB, log logger.ILogger) contract.QueryRepository {
	return &QueryRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(log),
	}
}

func (r *QueryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryRepositoryImpl) Create(ctx context.Context, query *entity.Query) error {
	m := r.mapper.QueryToModel(query)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *QueryRepositoryImpl) AttachSourceReferences(ctx context.Context, id uuid.UUID, refs []entity.SourceReference) (bool, error) {
	if refs == nil {
		refs = []entity.SourceReference{}
	}
	res := r.db.WithContext(ctx).
		Model(&model.Query{}).
		Where("id = ? AND source_references IS NULL", id).
		Update("source_references", r.mapper.ReferencesToJSON(refs))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *QueryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Query, error) {
	var m model.Query
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.QueryToEntity(&m), nil
}

func (r *QueryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Query, error) {
	var models []*model.Query
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Query, len(models))
	for i, m := range models {
		entities[i] = r.mapper.QueryToEntity(m)
	}
	return entities, nil
}

func (r *QueryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Query{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
