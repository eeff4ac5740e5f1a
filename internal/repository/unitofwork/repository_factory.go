package unitofwork

import (
	"context"

	"book-rag-be/internal/pkg/logger"

	"gorm.io/gorm"
)

// RepositoryFactory hands out a fresh UnitOfWork per ledger or index call.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

type gormFactory struct {
	db     *gorm.DB
	logger logger.ILogger
}

func NewRepositoryFactory(db *gorm.DB, log logger.ILogger) RepositoryFactory {
	return &gormFactory{db: db, logger: log}
}

// NewUnitOfWork binds ctx so statements issued outside a transaction are
// still cancelled with the caller.
func (f *gormFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db.WithContext(ctx), f.logger)
}
