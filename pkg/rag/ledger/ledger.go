// Package ledger is the durable record of queries, responses and sessions.
package ledger

import (
	"context"

	"book-rag-be/internal/entity"

	"github.com/google/uuid"
)

type Ledger interface {
	RecordQuery(ctx context.Context, query *entity.Query) error
	// RecordResponse stores resp and attaches its references to the owning
	// query if the query has none yet.
	RecordResponse(ctx context.Context, resp *entity.Response) error
	RecordSession(ctx context.Context, session *entity.ConversationSession) error
	// GetSession returns nil, nil when the session is unknown.
	GetSession(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error)
}

// Stats summarizes what the ledger holds.
type Stats struct {
	Sessions  int64
	Queries   int64
	Responses int64
	// ByStatus counts responses per validation status.
	ByStatus map[entity.ValidationStatus]int64
}

type StatsReader interface {
	Stats(ctx context.Context) (Stats, error)
}
