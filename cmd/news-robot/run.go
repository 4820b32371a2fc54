package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rpa-news-robot/internal/app"
	"rpa-news-robot/internal/browser"
	"rpa-news-robot/internal/scraper"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drive the browser through the search and write the report",
		Args:  cobra.NoArgs,
		RunE:  runRobot,
	}
}

func runRobot(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger)
	defer cancel()

	selectors, err := cfg.Selectors(filepath.Dir(configPath))
	if err != nil {
		return err
	}

	deps, closeDeps, err := baseDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	clean := newNormalizer(cfg).Text
	deps.Open = func(ctx context.Context) (scraper.Session, func() error, error) {
		b, err := browser.Launch(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		session, err := b.Open(ctx, selectors, clean)
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}
		return session, b.Close, nil
	}
	deps.Summary = os.Stdout

	orchestrator := app.NewOrchestrator(cfg, logger, deps)
	return app.NewScheduler(cfg.Scheduler, logger).Run(ctx, func(ctx context.Context) error {
		_, err := orchestrator.Run(ctx)
		return err
	})
}
