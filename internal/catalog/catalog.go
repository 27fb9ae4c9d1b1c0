// Package catalog provides read access to the canonical product records
// backing the retrieval tools. The similarity index is the fuzzy matcher;
// this store is the source of truth for display fields.
package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("product not found")

// Product is an immutable canonical record.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url"`
}

// Store looks up product records. The request path only reads; Upsert and
// List exist for offline seeding.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	Upsert(ctx context.Context, p Product) error
	List(ctx context.Context) ([]Product, error)
	Close() error
}
