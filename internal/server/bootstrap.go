package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/llm"
	"github.com/kattabharath12/tax-1040/internal/llm/openai"
	"github.com/kattabharath12/tax-1040/internal/llm/vertex"
	"github.com/kattabharath12/tax-1040/internal/storage"
)

// NewExtractor builds the configured extraction backend. It returns a nil
// Extractor, not an error, when the provider has no credential; callers then
// report CONFIGURATION on every processing request.
func NewExtractor(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Extractor, func(), error) {
	noop := func() {}
	if !cfg.Configured() {
		logger.Warn("llm.unconfigured", "provider", cfg.Provider)
		return nil, noop, nil
	}
	switch cfg.Provider {
	case "vertex":
		c, err := vertex.NewClient(ctx, vertex.Config{
			Project:     cfg.VertexProject,
			Region:      cfg.VertexRegion,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   int32(cfg.MaxTokens),
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("vertex client: %w", err)
		}
		return c, func() {
			if err := c.Close(); err != nil {
				logger.Warn("llm.vertex.close_failed", "err", err)
			}
		}, nil
	case "openai", "":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// NewFileStore routes document paths to the local root and, when enabled,
// to GCS and S3.
func NewFileStore(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*storage.Router, func(), error) {
	local := storage.NewLocalStore(cfg.LocalRoot)
	cleanup := func() {}

	var gcs, s3 storage.FileStore
	if cfg.GCSEnabled {
		g, err := storage.NewGCSStore(ctx)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gcs store: %w", err)
		}
		gcs = g
		cleanup = func() {
			if err := g.Close(); err != nil {
				logger.Warn("storage.gcs.close_failed", "err", err)
			}
		}
	}
	if cfg.S3Enabled {
		s, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("s3 store: %w", err)
		}
		s3 = s
	}
	logger.Info("storage.ready", "local_root", cfg.LocalRoot, "gcs", cfg.GCSEnabled, "s3", cfg.S3Enabled)
	return storage.NewRouter(local, gcs, s3, logger), cleanup, nil
}
