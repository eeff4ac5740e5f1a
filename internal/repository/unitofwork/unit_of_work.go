package unitofwork

import (
	"context"

	"book-rag-be/internal/repository/contract"
)

// UnitOfWork hands out repositories bound to one connection. Inside
// Transaction every repository shares the same transaction.
type UnitOfWork interface {
	Transaction(ctx context.Context, fn func(tx UnitOfWork) error) error

	BookContentRepository() contract.BookContentRepository
	QueryRepository() contract.QueryRepository
	ResponseRepository() contract.ResponseRepository
	SessionRepository() contract.SessionRepository
}
