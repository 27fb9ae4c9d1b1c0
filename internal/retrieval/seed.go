package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/embedding"
	"github.com/monalabs/mona/internal/vecindex"
)

// Seeder populates the vector index from the product catalog. Each product
// contributes a "{id}_desc" entry in the text collection and, when its
// image file is readable, a "{id}_img" entry in the image collection.
type Seeder struct {
	text    embedding.TextEmbedder
	image   embedding.ImageEmbedder
	index   vecindex.Index
	catalog catalog.Store
	dataDir string
	logger  *slog.Logger
}

func NewSeeder(text embedding.TextEmbedder, image embedding.ImageEmbedder, index vecindex.Index, store catalog.Store, dataDir string, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if dataDir == "" {
		dataDir = "."
	}
	return &Seeder{
		text:    text,
		image:   image,
		index:   index,
		catalog: store,
		dataDir: dataDir,
		logger:  logger,
	}
}

// Seed embeds every catalog product into both collections. It returns the
// number of products processed.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}

	for _, p := range products {
		if err := s.seedText(ctx, p); err != nil {
			return 0, err
		}
		if err := s.seedImage(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

func (s *Seeder) seedText(ctx context.Context, p catalog.Product) error {
	vec, err := s.text.EmbedText(ctx, p.Description)
	if err != nil {
		return fmt.Errorf("embed description for product %d: %w", p.ID, err)
	}
	entryID := fmt.Sprintf("%d_desc", p.ID)
	meta := vecindex.Meta{Category: p.Category, Name: p.Name}
	if err := s.index.Upsert(ctx, vecindex.TextCollection, entryID, vec, meta); err != nil {
		return fmt.Errorf("upsert %s: %w", entryID, err)
	}
	return nil
}

func (s *Seeder) seedImage(ctx context.Context, p catalog.Product) error {
	if p.ImageURL == "" {
		return nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dataDir, filepath.FromSlash(p.ImageURL)))
	if err != nil {
		s.logger.Warn("skipping image seed", "product_id", p.ID, "error", err)
		return nil
	}
	normalized, err := NormalizeImage(raw)
	if err != nil {
		s.logger.Warn("skipping unreadable image", "product_id", p.ID, "error", err)
		return nil
	}
	vec, err := s.image.EmbedImage(ctx, normalized)
	if err != nil {
		return fmt.Errorf("embed image for product %d: %w", p.ID, err)
	}
	entryID := fmt.Sprintf("%d_img", p.ID)
	meta := vecindex.Meta{Category: p.Category, Name: p.Name}
	if err := s.index.Upsert(ctx, vecindex.ImageCollection, entryID, vec, meta); err != nil {
		return fmt.Errorf("upsert %s: %w", entryID, err)
	}
	return nil
}
