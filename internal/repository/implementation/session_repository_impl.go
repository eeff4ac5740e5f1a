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
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewSessionRepository(db *gorm.DB, log logger.ILogger) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(log),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert keys on the session id, so racing creators converge on one row.
// created_at is never overwritten.
func (r *SessionRepositoryImpl) Upsert(ctx context.Context, session *entity.ConversationSession) error {
	m := r.mapper.SessionToModel(session)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_activity": gorm.Expr("GREATEST(sessions.last_activity, EXCLUDED.last_activity)"),
				"metadata":      gorm.Expr("EXCLUDED.metadata"),
				"user_id":       gorm.Expr("COALESCE(EXCLUDED.user_id, sessions.user_id)"),
			}),
		}).
		Create(m).Error
	return translateError(err)
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error) {
	var m model.ConversationSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ConversationSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
