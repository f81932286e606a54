// Package app builds the pipeline's providers from configuration. It is
// shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blackmichael/bluesense/internal/bluesky"
	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/domain"
	"github.com/blackmichael/bluesense/internal/language"
)

// NewBlueskyClient creates the post search client and logs in when
// credentials are configured.
func NewBlueskyClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bluesky.Client, error) {
	client := bluesky.NewClient(cfg.Bluesky.PDS, bluesky.WithAppView(cfg.Bluesky.AppView))

	if !cfg.HasBlueskyCredentials() {
		logger.Warn("bluesky credentials not set, searching anonymously", "appview", cfg.Bluesky.AppView)
		return client, nil
	}

	if err := client.Login(ctx, cfg.Bluesky.Username, cfg.Bluesky.Password); err != nil {
		return nil, fmt.Errorf("bluesky login: %w", err)
	}
	logger.Info("authenticated with bluesky", "handle", client.Handle(), "did", client.DID())
	return client, nil
}

// NewLanguageClient creates the sentiment oracle client.
func NewLanguageClient(ctx context.Context, cfg *config.Config) (*language.Client, error) {
	opts := []language.Option{language.WithEndpoint(cfg.Language.Endpoint)}
	if cfg.Language.APIKey != "" {
		opts = append(opts, language.WithAPIKey(cfg.Language.APIKey))
	}

	client, err := language.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create language client: %w", err)
	}
	return client, nil
}

// NewIngestor creates both provider clients and the pipeline on top of them.
func NewIngestor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*domain.Ingestor, error) {
	searcher, err := NewBlueskyClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	oracle, err := NewLanguageClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ingestor, err := domain.NewIngestor(searcher, oracle, domain.IngestorConfig{
		FetchMultiplier:    cfg.Analysis.FetchMultiplier,
		ScoringConcurrency: cfg.Analysis.Concurrency,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create ingestor: %w", err)
	}
	return ingestor, nil
}
