package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type record struct {
	id     string
	vector []float32
	meta   Meta
}

// InMemoryIndex is a brute-force cosine similarity index for local/dev use.
type InMemoryIndex struct {
	mu          sync.RWMutex
	collections map[string][]record
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{collections: make(map[string][]record)}
}

func (idx *InMemoryIndex) Upsert(_ context.Context, collection, id string, vector []float32, meta Meta) error {
	buf := make([]float32, len(vector))
	copy(buf, vector)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	records := idx.collections[collection]
	for i, r := range records {
		if r.id == id {
			records[i] = record{id: id, vector: buf, meta: meta}
			return nil
		}
	}
	idx.collections[collection] = append(records, record{id: id, vector: buf, meta: meta})
	return nil
}

func (idx *InMemoryIndex) Nearest(_ context.Context, collection string, vector []float32, k int) ([]Entry, error) {
	if k <= 0 {
		k = 1
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	records := idx.collections[collection]
	if len(records) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		score, err := cosineSimilarity(vector, r.vector)
		if err != nil {
			return nil, fmt.Errorf("collection %s entry %s: %w", collection, r.id, err)
		}
		entries = append(entries, Entry{ID: r.id, Score: score, Category: r.meta.Category, Name: r.meta.Name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

func (idx *InMemoryIndex) Close() error { return nil }

func cosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
