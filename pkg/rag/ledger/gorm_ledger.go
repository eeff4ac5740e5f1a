package ledger

import (
	"context"
	"errors"
	"fmt"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/specification"
	"book-rag-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const moduleName = "LEDGER"

type GormLedger struct {
	factory unitofwork.RepositoryFactory
	logger  logger.ILogger
}

var (
	_ Ledger      = (*GormLedger)(nil)
	_ StatsReader = (*GormLedger)(nil)
)

func NewGormLedger(factory unitofwork.RepositoryFactory, log logger.ILogger) *GormLedger {
	return &GormLedger{factory: factory, logger: log}
}

func (l *GormLedger) RecordQuery(ctx context.Context, query *entity.Query) error {
	uow := l.factory.NewUnitOfWork(ctx)
	err := uow.QueryRepository().Create(ctx, query)
	if errors.Is(err, contract.ErrDuplicateKey) {
		return nil
	}
	if err != nil {
		l.logger.Error(moduleName, "Failed to record query", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// errAlreadyRecorded unwinds the transaction when a retried response is
// already stored. It never leaves RecordResponse.
var errAlreadyRecorded = errors.New("response already recorded")

func (l *GormLedger) RecordResponse(ctx context.Context, resp *entity.Response) error {
	err := l.factory.NewUnitOfWork(ctx).Transaction(ctx, func(tx unitofwork.UnitOfWork) error {
		if err := tx.ResponseRepository().Create(ctx, resp); err != nil {
			if errors.Is(err, contract.ErrDuplicateKey) {
				return errAlreadyRecorded
			}
			return err
		}

		attached, err := tx.QueryRepository().AttachSourceReferences(ctx, resp.QueryId, resp.SourceReferences)
		if err != nil {
			return fmt.Errorf("attach source references: %w", err)
		}
		if !attached {
			l.logger.Debug(moduleName, "Query already carries source references", map[string]interface{}{
				"query_id": resp.QueryId.String(),
			})
		}
		return nil
	})
	if errors.Is(err, errAlreadyRecorded) {
		return nil
	}
	if err != nil {
		l.logger.Error(moduleName, "Failed to record response", map[string]interface{}{
			"response_id": resp.Id.String(),
			"error":       err.Error(),
		})
		return fmt.Errorf("record response: %w", err)
	}
	return nil
}

func (l *GormLedger) RecordSession(ctx context.Context, session *entity.ConversationSession) error {
	uow := l.factory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Upsert(ctx, session); err != nil {
		l.logger.Error(moduleName, "Failed to record session", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

func (l *GormLedger) GetSession(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	uow := l.factory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	queries, err := uow.QueryRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, fmt.Errorf("get session queries: %w", err)
	}
	for _, q := range queries {
		session.Queries = append(session.Queries, entity.SessionQuery{QueryId: q.Id, Timestamp: q.CreatedAt})
		if q.CreatedAt.After(session.LastActivity) {
			session.LastActivity = q.CreatedAt
		}
	}
	return session, nil
}

func (l *GormLedger) Stats(ctx context.Context) (Stats, error) {
	uow := l.factory.NewUnitOfWork(ctx)
	st := Stats{ByStatus: make(map[entity.ValidationStatus]int64)}

	var err error
	if st.Sessions, err = uow.SessionRepository().Count(ctx); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if st.Queries, err = uow.QueryRepository().Count(ctx); err != nil {
		return st, fmt.Errorf("count queries: %w", err)
	}
	for _, status := range []entity.ValidationStatus{entity.ValidationPassed, entity.ValidationFailed, entity.ValidationPending} {
		n, err := uow.ResponseRepository().Count(ctx, specification.ByValidationStatus{Status: string(status)})
		if err != nil {
			return st, fmt.Errorf("count responses: %w", err)
		}
		st.ByStatus[status] = n
		st.Responses += n
	}
	return st, nil
}
