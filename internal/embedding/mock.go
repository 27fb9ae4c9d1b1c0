package embedding

import (
	"context"
	"hash/fnv"
)

// MockEmbedder produces deterministic vectors from input bytes so local runs
// and tests work without any embedding backend. Identical inputs map to
// identical vectors; different inputs almost always diverge.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 8
	}
	return &MockEmbedder{dim: dim}
}

func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return e.hashVector([]byte(text)), nil
}

func (e *MockEmbedder) EmbedImage(ctx context.Context, jpeg []byte) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return e.hashVector(jpeg), nil
}

func (e *MockEmbedder) hashVector(data []byte) []float32 {
	vec := make([]float32, e.dim)
	h := fnv.New64a()
	h.Write(data)
	seed := h.Sum64()
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)%1000) / 1000
	}
	return vec
}
