package unitofwork

import (
	"context"
	"errors"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var errNestedTransaction = errors.New("unit of work: nested transaction")

type gormUnitOfWork struct {
	db     *gorm.DB
	logger logger.ILogger
	inTx   bool
}

func NewUnitOfWork(db *gorm.DB, log logger.ILogger) UnitOfWork {
	return &gormUnitOfWork{db: db, logger: log}
}

// Transaction commits when fn returns nil and rolls back otherwise,
// including when fn panics.
func (u *gormUnitOfWork) Transaction(ctx context.Context, fn func(tx UnitOfWork) error) error {
	if u.inTx {
		return errNestedTransaction
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{db: tx, logger: u.logger, inTx: true})
	})
}

func (u *gormUnitOfWork) BookContentRepository() contract.BookContentRepository {
	return implementation.NewBookContentRepository(u.db, u.logger)
}

func (u *gormUnitOfWork) QueryRepository() contract.QueryRepository {
	return implementation.NewQueryRepository(u.db, u.logger)
}

func (u *gormUnitOfWork) ResponseRepository() contract.ResponseRepository {
	return implementation.NewResponseRepository(u.db, u.logger)
}

func (u *gormUnitOfWork) SessionRepository() contract.SessionRepository {
	return implementation.NewSessionRepository(u.db, u.logger)
}
