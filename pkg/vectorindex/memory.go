package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"book-rag-be/pkg/embedding"
)

// MemoryIndex is a brute-force cosine index for tests and offline runs.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]Record)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, records ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.Id == "" {
			return fmt.Errorf("vectorindex: record without id")
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("vectorindex: record %s has no vector", r.Id)
		}
		if _, ok := m.records[r.Id]; !ok {
			m.order = append(m.order, r.Id)
		}
		m.records[r.Id] = r
	}
	return nil
}

func (m *MemoryIndex) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryIndex) DeleteBook(ctx context.Context, bookId string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	var removed int64
	for _, id := range m.order {
		if m.records[id].BookId == bookId {
			delete(m.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		h := Hit{
			ContentId:       r.Id,
			Text:            r.Text,
			SourceReference: r.SourceReference,
			Score:           embedding.CosineSimilarity(vector, r.Vector),
			Metadata:        r.Metadata,
		}
		if usable(h) && h.Score > 0 {
			hits = append(hits, h)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
