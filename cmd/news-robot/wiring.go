package main

import (
	"context"
	"fmt"

	"rpa-news-robot/internal/app"
	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/fetcher"
	"rpa-news-robot/internal/media"
	"rpa-news-robot/internal/normalize"
	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/report"
	"rpa-news-robot/internal/scraper"
	"rpa-news-robot/internal/storage/mssql"
	"rpa-news-robot/internal/upload"
)

func loadConfig() (*config.Config, *observability.Logger, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.LoadConfig(configPath, envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(observability.Options{
		LogPath:    cfg.Observability.LogPath,
		LogLevel:   cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
	})
	return cfg, logger, nil
}

func newNormalizer(cfg *config.Config) *normalize.Normalizer {
	return normalize.NewNormalizer(normalize.Options{
		TrimNBSP:        cfg.Normalize.TrimNBSP,
		CollapseSpaces:  cfg.Normalize.CollapseSpaces,
		MaxPreviewChars: cfg.Normalize.MaxPreviewChars,
	})
}

// baseDeps wires everything except the session opener. The returned close
// releases the archive connection.
func baseDeps(ctx context.Context, cfg *config.Config, logger *observability.Logger) (app.Deps, func(), error) {
	images := media.NewStore(cfg.Output.Dir)
	deps := app.Deps{
		Engine: scraper.NewEngine(
			fetcher.NewFetcher(cfg, logger),
			images,
			logger,
			scraper.WithDatePolicy(scraper.DatePolicy(cfg.Crawl.DateParsePolicy)),
		),
		Images: images,
		Report: report.NewAssembler(report.NewExcelWriter(), logger),
	}
	closeFn := func() {}

	if cfg.Storage.Enabled {
		repo, err := mssql.Open(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return deps, closeFn, fmt.Errorf("failed to open archive: %w", err)
		}
		deps.Archive = repo
		closeFn = func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close archive", "error", err.Error())
			}
		}
	}

	if cfg.Upload.Enabled {
		up, err := upload.NewS3Uploader(ctx, cfg.Upload, logger)
		if err != nil {
			closeFn()
			return deps, func() {}, fmt.Errorf("failed to configure upload: %w", err)
		}
		deps.Uploader = up
	}

	return deps, closeFn, nil
}
