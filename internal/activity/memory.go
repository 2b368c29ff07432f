package activity

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps activities in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Activity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Activity)}
}

func (r *MemoryRepository) Insert(_ context.Context, a *Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.ID]; exists {
		return nil
	}
	r.items[a.ID] = *a
	return nil
}

func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Activity, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a)
	}
	sortNewestFirst(out)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) ListByMember(_ context.Context, memberID string) ([]Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Activity{}
	for _, a := range r.items {
		if a.MemberID == memberID {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst orders by timestamp descending with id as tie-breaker,
// the same order the Postgres queries use.
func sortNewestFirst(items []Activity) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID > items[j].ID
	})
}
