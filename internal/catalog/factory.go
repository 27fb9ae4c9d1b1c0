package catalog

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when configured, otherwise an
// in-memory store preloaded with the sample catalog.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(SampleProducts()), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
