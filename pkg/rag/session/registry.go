// Package session owns conversation sessions: a fast cache in front of the
// ledger, with per-session serialization of every mutation.
package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/rag/ledger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	moduleName = "SESSION"
	shardCount = 64

	DefaultRecentQueries = 5
)

// Cache holds live sessions. Implementations must store copies so callers
// cannot mutate cached state through a returned pointer.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, bool, error)
	Save(ctx context.Context, session *entity.ConversationSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Registry struct {
	cache     Cache
	ledger    ledger.Ledger
	shards    [shardCount]sync.Mutex
	loads     singleflight.Group
	recentCap int
	now       func() time.Time
	logger    logger.ILogger
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithRecentQueryCap(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.recentCap = n
		}
	}
}

func NewRegistry(cache Cache, l ledger.Ledger, log logger.ILogger, opts ...Option) *Registry {
	r := &Registry{
		cache:     cache,
		ledger:    l,
		recentCap: DefaultRecentQueries,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) lock(id uuid.UUID) func() {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	m := &r.shards[h.Sum32()%shardCount]
	m.Lock()
	return m.Unlock
}

// Resolve returns the session for id, creating it when id is nil or unknown.
// An unknown id is kept so the caller's identifier stays valid.
func (r *Registry) Resolve(ctx context.Context, id *uuid.UUID, userId *uuid.UUID) (*entity.ConversationSession, error) {
	if id == nil || *id == uuid.Nil {
		return r.Create(ctx, uuid.New(), userId)
	}
	s, err := r.Get(ctx, *id)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	return r.Create(ctx, *id, userId)
}

// Create registers a new session. Creating an id that already exists
// returns the existing session unchanged.
func (r *Registry) Create(ctx context.Context, id uuid.UUID, userId *uuid.UUID) (*entity.ConversationSession, error) {
	unlock := r.lock(id)
	defer unlock()

	existing, err := r.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing.Clone(), nil
	}

	now := r.now()
	s := &entity.ConversationSession{
		Id:           id,
		UserId:       userId,
		CreatedAt:    now,
		LastActivity: now,
		Queries:      []entity.SessionQuery{},
		Metadata:     map[string]interface{}{},
	}
	r.store(ctx, s)

	r.logger.Info(moduleName, "Session created", map[string]interface{}{
		"session_id": id.String(),
	})
	return s.Clone(), nil
}

// Get returns a snapshot of the session, loading it from the ledger on a
// cache miss. It returns nil, nil for unknown sessions.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	if s, ok := r.cached(ctx, id); ok {
		return s, nil
	}

	loaded, err := r.load(ctx, id)
	if err != nil || loaded == nil {
		return nil, err
	}

	unlock := r.lock(id)
	defer unlock()
	if s, ok := r.cached(ctx, id); ok {
		return s, nil
	}
	r.cacheSave(ctx, loaded)
	return loaded.Clone(), nil
}

// AddQuery appends queryId to the session. The query list only grows and
// last_activity never moves backwards.
func (r *Registry) AddQuery(ctx context.Context, id uuid.UUID, queryId uuid.UUID, at time.Time) (*entity.ConversationSession, error) {
	unlock := r.lock(id)
	defer unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		now := r.now()
		s = &entity.ConversationSession{Id: id, CreatedAt: now, LastActivity: now, Metadata: map[string]interface{}{}}
	}

	for _, q := range s.Queries {
		if q.QueryId == queryId {
			return s.Clone(), nil
		}
	}
	s.Queries = append(s.Queries, entity.SessionQuery{QueryId: queryId, Timestamp: at})
	if at.After(s.LastActivity) {
		s.LastActivity = at
	}
	if now := r.now(); now.After(s.LastActivity) {
		s.LastActivity = now
	}
	r.store(ctx, s)
	return s.Clone(), nil
}

// EndSession drops the session from the cache. The ledger keeps its record.
func (r *Registry) EndSession(ctx context.Context, id uuid.UUID) error {
	unlock := r.lock(id)
	defer unlock()
	if err := r.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	r.logger.Info(moduleName, "Session ended", map[string]interface{}{"session_id": id.String()})
	return nil
}

// RecentQueries returns up to limit of the latest queries, oldest first.
func (r *Registry) RecentQueries(ctx context.Context, id uuid.UUID, limit int) ([]entity.SessionQuery, error) {
	if limit <= 0 {
		limit = r.recentCap
	}
	s, err := r.Get(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	if len(s.Queries) > limit {
		return s.Queries[len(s.Queries)-limit:], nil
	}
	return s.Queries, nil
}

// UpdateMetadata merges md into the session metadata.
func (r *Registry) UpdateMetadata(ctx context.Context, id uuid.UUID, md map[string]interface{}) (*entity.ConversationSession, error) {
	unlock := r.lock(id)
	defer unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if s.Metadata == nil {
		s.Metadata = map[string]interface{}{}
	}
	for k, v := range md {
		s.Metadata[k] = v
	}
	if now := r.now(); now.After(s.LastActivity) {
		s.LastActivity = now
	}
	r.store(ctx, s)
	return s.Clone(), nil
}

// loadLocked must be called with the shard lock held.
func (r *Registry) loadLocked(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	if s, ok := r.cached(ctx, id); ok {
		return s, nil
	}
	s, err := r.load(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	r.cacheSave(ctx, s)
	return s.Clone(), nil
}

// load reads from the ledger; concurrent misses for one id share a read.
func (r *Registry) load(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	v, err, _ := r.loads.Do(id.String(), func() (interface{}, error) {
		return r.ledger.GetSession(ctx, id)
	})
	if err != nil {
		r.logger.Error(moduleName, "Failed to load session from ledger", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("load session: %w", err)
	}
	s, _ := v.(*entity.ConversationSession)
	if s == nil {
		return nil, nil
	}
	return s.Clone(), nil
}

// store writes the cache and mirrors to the ledger. Ledger failures are
// logged; the cached session stays authoritative for this process.
func (r *Registry) store(ctx context.Context, s *entity.ConversationSession) {
	r.cacheSave(ctx, s)
	if err := r.ledger.RecordSession(ctx, s); err != nil {
		r.logger.Warn(moduleName, "Session not mirrored to ledger", map[string]interface{}{
			"session_id": s.Id.String(),
			"error":      err.Error(),
		})
	}
}

func (r *Registry) cached(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, bool) {
	s, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn(moduleName, "Session cache read failed", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
		return nil, false
	}
	return s, ok && s != nil
}

func (r *Registry) cacheSave(ctx context.Context, s *entity.ConversationSession) {
	if err := r.cache.Save(ctx, s); err != nil {
		r.logger.Warn(moduleName, "Session cache write failed", map[string]interface{}{
			"session_id": s.Id.String(),
			"error":      err.Error(),
		})
	}
}
