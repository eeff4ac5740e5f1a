package contract

import (
	"context"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

type QueryRepository interface {
	Create(ctx context.Context, query *entity.Query) error
	// AttachSourceReferences sets the reference list only when none is stored yet.
	AttachSourceReferences(ctx context.Context, id uuid.UUID, refs []entity.SourceReference) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Query, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Query, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, response *entity.Response) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Response, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Response, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type SessionRepository interface {
	// Upsert inserts the session or refreshes last_activity, metadata and user_id.
	Upsert(ctx context.Context, session *entity.ConversationSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
