package catalog

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is a simple in-process product store for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
}

func NewInMemoryStore(seed []Product) *InMemoryStore {
	s := &InMemoryStore{products: make(map[int64]Product, len(seed))}
	for _, p := range seed {
		s.products[p.ID] = p
	}
	return s
}

func (s *InMemoryStore) GetByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
