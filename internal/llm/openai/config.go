package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// ProcessingMethod tags records produced by this backend.
const ProcessingMethod = "llm_api_extraction"

// Config for an OpenAI-compatible chat/completions endpoint.
type Config struct {
	APIKey      string
	BaseURL     string        // default https://apps.abacus.ai/v1
	Model       string        // default gpt-4.1-mini
	Temperature float32       // default 0.1
	MaxTokens   int           // default 3000
	Timeout     time.Duration // bounds the whole call
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://apps.abacus.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
