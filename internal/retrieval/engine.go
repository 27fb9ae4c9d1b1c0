// Package retrieval resolves user queries to canonical catalog records in
// two stages: a nearest-neighbor lookup on the embedding index, then a
// fetch of the full product row by the ID encoded in the matched entry.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/embedding"
	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/vecindex"
)

// ErrMiss reports that no catalog record could be resolved for a query.
// It is an expected outcome, not a failure of the pipeline.
var ErrMiss = errors.New("retrieval: no matching product")

// Engine runs similarity search over the product index.
type Engine struct {
	text    embedding.TextEmbedder
	image   embedding.ImageEmbedder
	index   vecindex.Index
	catalog catalog.Store
	timeout time.Duration
	logger  *slog.Logger
}

func NewEngine(text embedding.TextEmbedder, image embedding.ImageEmbedder, index vecindex.Index, store catalog.Store, timeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Engine{
		text:    text,
		image:   image,
		index:   index,
		catalog: store,
		timeout: timeout,
		logger:  logger,
	}
}

// SearchByText resolves a free-text query to the closest catalog product.
func (e *Engine) SearchByText(ctx context.Context, query string) (catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vec, err := e.text.EmbedText(ctx, query)
	if err != nil {
		return catalog.Product{}, wrapUpstream("embed query", err)
	}
	return e.resolveNearest(ctx, vecindex.TextCollection, vec)
}

// SearchByImage resolves a raw uploaded image to the closest catalog
// product. The image is normalized before embedding so uploads in varied
// sizes and formats land in the same space as the seeded catalog images.
func (e *Engine) SearchByImage(ctx context.Context, raw []byte) (catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	normalized, err := NormalizeImage(raw)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("normalize image: %w", err)
	}
	vec, err := e.image.EmbedImage(ctx, normalized)
	if err != nil {
		return catalog.Product{}, wrapUpstream("embed image", err)
	}
	return e.resolveNearest(ctx, vecindex.ImageCollection, vec)
}

func (e *Engine) resolveNearest(ctx context.Context, collection string, vec []float32) (catalog.Product, error) {
	entries, err := e.index.Nearest(ctx, collection, vec, 1)
	if err != nil {
		return catalog.Product{}, wrapUpstream("nearest in "+collection, err)
	}
	if len(entries) == 0 {
		return catalog.Product{}, ErrMiss
	}

	id, err := productIDFromEntry(entries[0].ID)
	if err != nil {
		e.logger.Warn("index entry has unparseable id", "collection", collection, "entry_id", entries[0].ID)
		return catalog.Product{}, ErrMiss
	}

	product, err := e.catalog.GetByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		e.logger.Warn("index entry points at missing product", "collection", collection, "product_id", id)
		return catalog.Product{}, ErrMiss
	}
	if err != nil {
		return catalog.Product{}, wrapUpstream(fmt.Sprintf("fetch product %d", id), err)
	}
	return *product, nil
}

// wrapUpstream classifies a pipeline failure. Deadline expiry means an
// upstream dependency did not answer within the engine timeout, so it
// surfaces under the shared upstream-timeout sentinel.
func wrapUpstream(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", llm.ErrUpstreamTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// productIDFromEntry extracts the numeric product ID from an index entry id
// of the form "{productID}_{modality}".
func productIDFromEntry(entryID string) (int64, error) {
	prefix, _, ok := strings.Cut(entryID, "_")
	if !ok {
		return 0, fmt.Errorf("entry id %q has no modality suffix", entryID)
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("entry id %q has non-numeric prefix", entryID)
	}
	return id, nil
}
