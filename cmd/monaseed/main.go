// Command monaseed loads the sample catalog into the product store and
// embeds every product into the vector index. Run it once against a fresh
// database before starting the server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/config"
	"github.com/monalabs/mona/internal/embedding"
	"github.com/monalabs/mona/internal/retrieval"
	"github.com/monalabs/mona/internal/vecindex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("DATABASE_URL is required: the in-memory backends are seeded automatically at server start")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	store, err := catalog.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("catalog store init failed: %v", err)
	}
	defer store.Close()

	for _, p := range catalog.SampleProducts() {
		if err := store.Upsert(ctx, p); err != nil {
			log.Fatalf("upsert product %d: %v", p.ID, err)
		}
	}
	log.Printf("catalog loaded with %d products", len(catalog.SampleProducts()))

	index, err := vecindex.NewIndex(ctx, cfg.DatabaseURL, map[string]int{
		vecindex.TextCollection:  cfg.TextEmbeddingDim,
		vecindex.ImageCollection: cfg.ImageEmbeddingDim,
	})
	if err != nil {
		log.Fatalf("vector index init failed: %v", err)
	}
	defer index.Close()

	var textEmb embedding.TextEmbedder
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		textEmb, err = embedding.NewOpenAITextEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("text embedder init failed: %v", err)
		}
	} else {
		log.Printf("no OPENAI_API_KEY set, seeding with the mock text embedder")
		textEmb = embedding.NewMockEmbedder(cfg.TextEmbeddingDim)
	}

	var imageEmb embedding.ImageEmbedder
	if strings.TrimSpace(cfg.ImageEmbedURL) != "" {
		imageEmb = embedding.NewHTTPImageEmbedder(cfg.ImageEmbedURL)
	} else {
		log.Printf("no IMAGE_EMBED_URL set, seeding with the mock image embedder")
		imageEmb = embedding.NewMockEmbedder(cfg.ImageEmbeddingDim)
	}

	seeder := retrieval.NewSeeder(textEmb, imageEmb, index, store, cfg.DataDir, logger)
	n, err := seeder.Seed(ctx)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("seeded %d products into the vector index", n)
}
