package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"book-rag-be/internal/entity"

	"github.com/google/uuid"
)

var ErrUnknownQuery = errors.New("ledger: response references an unknown query")

// MemoryLedger keeps everything in maps. It backs offline runs and tests.
type MemoryLedger struct {
	mu        sync.RWMutex
	queries   map[uuid.UUID]entity.Query
	responses map[uuid.UUID]entity.Response
	sessions  map[uuid.UUID]*entity.ConversationSession
}

var (
	_ Ledger      = (*MemoryLedger)(nil)
	_ StatsReader = (*MemoryLedger)(nil)
)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		queries:   make(map[uuid.UUID]entity.Query),
		responses: make(map[uuid.UUID]entity.Response),
		sessions:  make(map[uuid.UUID]*entity.ConversationSession),
	}
}

func (l *MemoryLedger) RecordQuery(ctx context.Context, query *entity.Query) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.queries[query.Id]; !ok {
		l.queries[query.Id] = *query
	}
	return nil
}

func (l *MemoryLedger) RecordResponse(ctx context.Context, resp *entity.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.queries[resp.QueryId]
	if !ok {
		return ErrUnknownQuery
	}
	if _, dup := l.responses[resp.Id]; dup {
		return nil
	}
	l.responses[resp.Id] = *resp
	if q.SourceReferences == nil {
		q.SourceReferences = append([]entity.SourceReference{}, resp.SourceReferences...)
		l.queries[q.Id] = q
	}
	return nil
}

func (l *MemoryLedger) RecordSession(ctx context.Context, session *entity.ConversationSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.sessions[session.Id]
	if !ok {
		l.sessions[session.Id] = session.Clone()
		return nil
	}
	if session.LastActivity.After(existing.LastActivity) {
		existing.LastActivity = session.LastActivity
	}
	if session.UserId != nil {
		u := *session.UserId
		existing.UserId = &u
	}
	existing.Metadata = session.Clone().Metadata
	return nil
}

func (l *MemoryLedger) GetSession(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[id]
	if !ok {
		return nil, nil
	}
	out := s.Clone()
	out.Queries = nil
	for _, q := range l.queries {
		if q.SessionId == id {
			out.Queries = append(out.Queries, entity.SessionQuery{QueryId: q.Id, Timestamp: q.CreatedAt})
		}
	}
	sort.SliceStable(out.Queries, func(i, j int) bool { return out.Queries[i].Timestamp.Before(out.Queries[j].Timestamp) })
	if out.Queries == nil {
		out.Queries = []entity.SessionQuery{}
	}
	return out, nil
}

// Query returns a copy of a recorded query.
func (l *MemoryLedger) Query(id uuid.UUID) (entity.Query, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	q, ok := l.queries[id]
	return q, ok
}

// Response returns a copy of a recorded response.
func (l *MemoryLedger) Response(id uuid.UUID) (entity.Response, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.responses[id]
	return r, ok
}

func (l *MemoryLedger) Counts() (queries, responses, sessions int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.queries), len(l.responses), len(l.sessions)
}

func (l *MemoryLedger) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := Stats{
		Sessions:  int64(len(l.sessions)),
		Queries:   int64(len(l.queries)),
		Responses: int64(len(l.responses)),
		ByStatus:  make(map[entity.ValidationStatus]int64),
	}
	for _, r := range l.responses {
		st.ByStatus[r.ValidationStatus]++
	}
	return st, nil
}
