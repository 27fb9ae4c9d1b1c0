package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/monalabs/mona/internal/agent"
	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/config"
	"github.com/monalabs/mona/internal/embedding"
	"github.com/monalabs/mona/internal/httpapi"
	"github.com/monalabs/mona/internal/imagecache"
	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/observability"
	"github.com/monalabs/mona/internal/retrieval"
	"github.com/monalabs/mona/internal/session"
	"github.com/monalabs/mona/internal/tools"
	"github.com/monalabs/mona/internal/vecindex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	window := observability.NewLatencyWindow(256)

	ctx := context.Background()

	store, err := catalog.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("catalog store init failed: %v", err)
	}
	defer store.Close()

	index, err := vecindex.NewIndex(ctx, cfg.DatabaseURL, map[string]int{
		vecindex.TextCollection:  cfg.TextEmbeddingDim,
		vecindex.ImageCollection: cfg.ImageEmbeddingDim,
	})
	if err != nil {
		log.Fatalf("vector index init failed: %v", err)
	}
	defer index.Close()

	textEmb, imageEmb := buildEmbedders(cfg)

	engine := retrieval.NewEngine(textEmb, imageEmb, index, store, cfg.RetrievalTimeout, logger)

	// A fresh in-memory index is empty; seed it from the catalog so local
	// runs answer queries without a separate seeding step.
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		seeder := retrieval.NewSeeder(textEmb, imageEmb, index, store, cfg.DataDir, logger)
		n, err := seeder.Seed(ctx)
		if err != nil {
			log.Fatalf("index seeding failed: %v", err)
		}
		log.Printf("seeded in-memory index with %d products", n)
	}

	client, err := llm.NewClient(llm.Config{
		Mode:          cfg.LLMMode,
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.ChatModel,
		Timeout:       cfg.LLMTimeout,
		MaxConcurrent: cfg.LLMMaxConcurrent,
	}, logger)
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}
	if _, mock := client.(*llm.MockClient); mock {
		log.Printf("llm client: mock (no OPENAI_API_KEY)")
	} else {
		log.Printf("llm client: openai model %s", cfg.ChatModel)
	}

	cache := imagecache.New()
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewTextSearchTool(engine)); err != nil {
		log.Fatalf("register text search tool: %v", err)
	}
	if err := registry.Register(tools.NewImageSearchTool(engine, cache)); err != nil {
		log.Fatalf("register image search tool: %v", err)
	}

	sessions := session.NewStore()
	orchestrator := agent.NewOrchestrator(
		sessions,
		client,
		registry,
		cache,
		agent.NewShaper(cfg.DataDir),
		cfg.MaxToolRounds,
		metrics,
		window,
		logger,
	)

	api := httpapi.New(cfg, orchestrator, metrics, window, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// buildEmbedders picks real embedding backends when configured and falls
// back to deterministic mocks so the service always starts.
func buildEmbedders(cfg config.Config) (embedding.TextEmbedder, embedding.ImageEmbedder) {
	var textEmb embedding.TextEmbedder
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" && cfg.LLMMode != "mock" {
		e, err := embedding.NewOpenAITextEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("text embedder init failed: %v", err)
		}
		textEmb = e
		log.Printf("text embedder: openai model %s", cfg.EmbeddingModel)
	} else {
		textEmb = embedding.NewMockEmbedder(cfg.TextEmbeddingDim)
		log.Printf("text embedder: mock")
	}

	var imageEmb embedding.ImageEmbedder
	if strings.TrimSpace(cfg.ImageEmbedURL) != "" {
		imageEmb = embedding.NewHTTPImageEmbedder(cfg.ImageEmbedURL)
		log.Printf("image embedder: http %s", cfg.ImageEmbedURL)
	} else {
		imageEmb = embedding.NewMockEmbedder(cfg.ImageEmbeddingDim)
		log.Printf("image embedder: mock")
	}

	return textEmb, imageEmb
}
