package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the shopping assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool
	FrontendOrigin string

	// DataDir is the root under which product image paths (image_url) resolve.
	DataDir string

	LLMMode        string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string

	ImageEmbedURL     string
	TextEmbeddingDim  int
	ImageEmbeddingDim int

	MaxToolRounds    int
	LLMTimeout       time.Duration
	RetrievalTimeout time.Duration
	LLMMaxConcurrent int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "mona"),
		AllowAnyOrigin:   false,
		FrontendOrigin:   envOrDefault("APP_FRONTEND_ORIGIN", "http://localhost:3000"),
		DataDir:          envOrDefault("APP_DATA_DIR", "."),
		LLMMode:          envOrDefault("LLM_MODE", "auto"),
		OpenAIAPIKey:     stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:        envOrDefault("OPENAI_CHAT_MODEL", "gpt-4.1"),
		EmbeddingModel:   envOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ImageEmbedURL:    stringsTrimSpace("IMAGE_EMBED_URL"),
		// text-embedding-3-small output width.
		TextEmbeddingDim: 1536,
		// OpenCLIP ViT-B/32 output width, the sidecar default.
		ImageEmbeddingDim: 512,
		MaxToolRounds:     8,
		LLMTimeout:        60 * time.Second,
		RetrievalTimeout:  15 * time.Second,
		LLMMaxConcurrent:  8,
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:   15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RetrievalTimeout, err = durationFromEnv("RETRIEVAL_TIMEOUT", cfg.RetrievalTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TextEmbeddingDim, err = intFromEnv("TEXT_EMBEDDING_DIM", cfg.TextEmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.ImageEmbeddingDim, err = intFromEnv("IMAGE_EMBEDDING_DIM", cfg.ImageEmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxToolRounds, err = intFromEnv("AGENT_MAX_TOOL_ROUNDS", cfg.MaxToolRounds)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxConcurrent, err = intFromEnv("LLM_MAX_CONCURRENT", cfg.LLMMaxConcurrent)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LLMMode)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("LLM_MODE must be one of auto|openai|mock, got %q", cfg.LLMMode)
	}
	if cfg.TextEmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("TEXT_EMBEDDING_DIM must be positive")
	}
	if cfg.ImageEmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("IMAGE_EMBEDDING_DIM must be positive")
	}
	if cfg.MaxToolRounds <= 0 {
		return Config{}, fmt.Errorf("AGENT_MAX_TOOL_ROUNDS must be positive")
	}
	if cfg.LLMMaxConcurrent <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_CONCURRENT must be positive")
	}
	if cfg.LLMTimeout < time.Second {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
