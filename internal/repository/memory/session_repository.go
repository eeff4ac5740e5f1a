package memory

import (
	"context"
	"time"

	"book-rag-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process session cache. Values are cloned on
// the way in and out.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.ConversationSession) error {
	r.cache.Set(session.Id.String(), session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, bool, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.ConversationSession).Clone(), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}
