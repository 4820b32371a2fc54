package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"rpa-news-robot/internal/checksum"
	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/media"
	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/report"
	"rpa-news-robot/internal/scraper"
	"rpa-news-robot/internal/storage"
)

// SessionOpener provides the feed for one run. release is called once the
// crawl is over.
type SessionOpener func(ctx context.Context) (session scraper.Session, release func() error, err error)

// Uploader copies run artifacts to remote storage.
type Uploader interface {
	UploadFiles(ctx context.Context, files []string) (int, error)
}

// Deps are the collaborators of an Orchestrator. Archive, Uploader and
// Summary are optional.
type Deps struct {
	Open     SessionOpener
	Engine   *scraper.Engine
	Images   *media.Store
	Report   *report.Assembler
	Archive  storage.Archive
	Uploader Uploader
	Summary  io.Writer
}

type Orchestrator struct {
	cfg    *config.Config
	logger *observability.Logger
	deps   Deps
	hasher *checksum.Generator
}

func NewOrchestrator(cfg *config.Config, logger *observability.Logger, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		hasher: checksum.NewGenerator(),
	}
}

// RunResult is the outcome of one run. It is returned even when Run fails.
type RunResult struct {
	RunID      string
	Records    []scraper.Record
	Stats      scraper.Stats
	ReportPath string
	Archived   map[storage.Outcome]int
	Uploaded   int
}

// Run crawls the feed once, writes the report and hands the artifacts to the
// archive and uploader. Archive and upload failures are logged only.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:      uuid.NewString(),
		ReportPath: o.cfg.ExcelPath(),
	}
	logger := o.logger.With("run_id", result.RunID)

	logger.Info("Run started",
		"phrase", o.cfg.Search.Phrase,
		"categories", o.cfg.Search.Categories,
		"output", result.ReportPath,
	)

	if o.cfg.Output.ClearBeforeRun {
		n, err := o.deps.Images.Clear()
		if err != nil {
			logger.Warn("Failed to clear previous downloads", "error", err.Error())
		} else {
			logger.Info("Previous downloads cleared", "files", n)
		}
	}

	session, release, err := o.deps.Open(ctx)
	if err != nil {
		logger.Error("Failed to open search session", "error", err.Error())
		return result, &scraper.SessionError{Op: "open", Err: err}
	}

	res, crawlErr := o.deps.Engine.Run(ctx, session, scraper.Query{
		Phrase:     o.cfg.Search.Phrase,
		Categories: o.cfg.Search.CategoryList(),
		MonthsBack: o.cfg.Search.MonthsBack,
		MaxRecords: o.cfg.Search.MaxRecords,
	})
	if release != nil {
		if err := release(); err != nil {
			logger.Warn("Failed to release search session", "error", err.Error())
		}
	}
	result.Records = res.Records
	result.Stats = res.Stats

	// Partial records of a failed crawl are still reported.
	if err := o.deps.Report.Write(res.Records, result.ReportPath); err != nil {
		logger.Error("Report not saved", "error", err.Error())
		if crawlErr != nil {
			return result, fmt.Errorf("%w (report: %v)", crawlErr, err)
		}
		return result, err
	}

	if o.deps.Archive != nil {
		result.Archived = o.archive(ctx, logger, result)
	}
	if o.deps.Uploader != nil {
		result.Uploaded = o.upload(ctx, logger, result.ReportPath)
	}
	if o.deps.Summary != nil {
		report.RenderSummary(o.deps.Summary, res)
	}

	if crawlErr != nil {
		logger.Error("Run failed", "records", len(result.Records), "error", crawlErr.Error())
		return result, crawlErr
	}

	logger.Info("Run completed",
		"records", len(result.Records),
		"pages", result.Stats.Pages,
		"reason", result.Stats.StoppedReason,
	)
	return result, nil
}

func (o *Orchestrator) archive(ctx context.Context, logger *observability.Logger, result *RunResult) map[storage.Outcome]int {
	counts := make(map[storage.Outcome]int)
	rows := storage.RowsFromRecords(result.RunID, o.cfg.Search.Phrase, result.Records, o.hasher)

	for i := range rows {
		outcome, err := o.deps.Archive.UpsertArticle(ctx, &rows[i])
		if err != nil {
			logger.Warn("Failed to archive article", "title", rows[i].Title, "error", err.Error())
			continue
		}
		counts[outcome]++
	}

	logger.Info("Articles archived",
		"inserted", counts[storage.Inserted],
		"updated", counts[storage.Updated],
		"unchanged", counts[storage.Unchanged],
	)
	if total, err := o.deps.Archive.CountByPhrase(ctx, o.cfg.Search.Phrase); err == nil {
		logger.Info("Archive size", "phrase", o.cfg.Search.Phrase, "articles", total)
	}
	return counts
}

func (o *Orchestrator) upload(ctx context.Context, logger *observability.Logger, reportPath string) int {
	files, err := o.deps.Images.Files()
	if err != nil {
		logger.Warn("Failed to list images for upload", "error", err.Error())
	}
	files = append(files, reportPath)

	n, err := o.deps.Uploader.UploadFiles(ctx, files)
	if err != nil {
		logger.Warn("Some files were not uploaded", "uploaded", n, "error", err.Error())
	}
	return n
}
