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

	"gorm.io/gorm"
)

type ResponseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewResponseRepository(db *gorm.DB, log logger.ILogger) contract.ResponseRepository {
	return &ResponseRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(log),
	}
}

func (r *ResponseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ResponseRepositoryImpl) Create(ctx context.Context, response *entity.Response) error {
	m := r.mapper.ResponseToModel(response)
	// Omit the association so gorm does not try to upsert the parent query.
	if err := r.db.WithContext(ctx).Omit("Query").Create(m).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *ResponseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Response, error) {
	var m model.Response
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ResponseToEntity(&m), nil
}

func (r *ResponseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Response, error) {
	var models []*model.Response
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Response, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ResponseToEntity(m)
	}
	return entities, nil
}

func (r *ResponseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Response{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
