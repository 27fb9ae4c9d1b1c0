// Package vecindex provides the vector similarity index behind product
// retrieval. Entries are keyed "{productID}_{modality}" so a nearest match
// can be resolved back to its canonical catalog record.
package vecindex

import "context"

// Collection names for the two embedding spaces.
const (
	TextCollection  = "product_catalog_text"
	ImageCollection = "product_catalog_images"
)

// Meta is the metadata stored alongside an embedding.
type Meta struct {
	Category string `json:"category"`
	Name     string `json:"item_name"`
}

// Entry is a similarity search result.
type Entry struct {
	ID       string  `json:"id"`
	Score    float32 `json:"score"`
	Category string  `json:"category"`
	Name     string  `json:"item_name"`
}

// Index stores embeddings per collection and answers nearest-neighbor
// queries. Upsert runs offline during seeding; only Nearest is on the
// request path.
type Index interface {
	Upsert(ctx context.Context, collection, id string, vector []float32, meta Meta) error
	Nearest(ctx context.Context, collection string, vector []float32, k int) ([]Entry, error)
	Close() error
}
