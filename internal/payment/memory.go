package payment

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Payment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Payment)}
}

func (r *MemoryRepository) Create(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	r.items[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Upsert(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Payment, error) {
	return r.filter(func(Payment) bool { return true }), nil
}

func (r *MemoryRepository) ListByMember(_ context.Context, memberID string) ([]Payment, error) {
	return r.filter(func(p Payment) bool { return p.MemberID == memberID }), nil
}

func (r *MemoryRepository) filter(keep func(Payment) bool) []Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Payment{}
	for _, p := range r.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// MemorySequence is an in-process invoice counter.
type MemorySequence struct {
	mu   sync.Mutex
	last int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{}
}

func (s *MemorySequence) Next(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	return s.last, nil
}

func (s *MemorySequence) Advance(_ context.Context, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.last {
		s.last = n
	}
	return nil
}
