package vecindex

import (
	"context"
	"strings"
)

// NewIndex creates a pgvector-backed index when configured, otherwise an
// in-memory brute-force index. dims maps collection name to embedding width.
func NewIndex(ctx context.Context, databaseURL string, dims map[string]int) (Index, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryIndex(), nil
	}
	return NewPostgresIndex(ctx, databaseURL, dims)
}
