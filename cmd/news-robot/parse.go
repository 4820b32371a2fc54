package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rpa-news-robot/internal/app"
	"rpa-news-robot/internal/scraper"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [html files...]",
		Short: "Build the report from saved search result pages",
		Long: `Read search result pages saved from the browser, in the order they were
shown, and run the same extraction, report and archive steps as "run".
Each file is one page of the result feed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger)
	defer cancel()

	pages := make([]string, 0, len(args))
	for _, path := range args {
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		pages = append(pages, string(body))
	}

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
	deps.Open = func(context.Context) (scraper.Session, func() error, error) {
		session, err := scraper.NewListingSession(selectors, clean, pages...)
		return session, nil, err
	}
	deps.Summary = os.Stdout

	_, err = app.NewOrchestrator(cfg, logger, deps).Run(ctx)
	return err
}
