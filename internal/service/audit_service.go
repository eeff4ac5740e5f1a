package service

import (
	"context"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/events"
	pkgNats "book-rag-be/pkg/nats"
)

const auditModule = "AUDIT"

type IAuditService interface {
	Start(ctx context.Context) error
}

// auditService writes every pipeline audit event to the log. It is the
// durable consumer of the audit stream.
type auditService struct {
	subscriber *pkgNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber *pkgNats.Subscriber, log logger.ILogger) IAuditService {
	return &auditService{subscriber: subscriber, logger: log}
}

func (s *auditService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, pkgNats.SubjectPrefix+".>", "rag-audit-log", s.handle)
}

func (s *auditService) handle(ctx context.Context, ev events.Event) error {
	details := map[string]interface{}{
		"type":        ev.EventType(),
		"occurred_at": ev.Timestamp(),
	}
	for k, v := range ev.Payload() {
		details[k] = v
	}

	switch ev.EventType() {
	case events.TypeQueryRejected:
		s.logger.Warn(auditModule, "Query rejected", details)
	default:
		s.logger.Info(auditModule, "Query answered", details)
	}
	return nil
}
