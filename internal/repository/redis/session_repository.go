package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"book-rag-be/internal/entity"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "rag:session:"

// SessionRepository caches sessions in Redis as JSON so several API
// instances see the same live state.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.ConversationSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, key(session.Id), raw, r.ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, bool, error) {
	raw, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s entity.ConversationSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	if s.Queries == nil {
		s.Queries = []entity.SessionQuery{}
	}
	return &s, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, key(id)).Err()
}
