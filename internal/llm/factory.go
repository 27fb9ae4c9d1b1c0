package llm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config controls client construction.
type Config struct {
	Mode          string
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxConcurrent int
}

// NewClient builds a client for the configured mode. Mode "auto" picks the
// OpenAI backend when an API key is present and falls back to the mock.
func NewClient(cfg Config, logger *slog.Logger) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxConcurrent, logger)
		}
		return NewMockClient(), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxConcurrent, logger)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}
