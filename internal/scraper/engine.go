package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rpa-news-robot/internal/checksum"
	"rpa-news-robot/internal/observability"
)

// DatePolicy decides what an unparseable publish date does to the run.
type DatePolicy string

const (
	DatePolicyAbort DatePolicy = "abort"
	DatePolicySkip  DatePolicy = "skip"
)

// Query is what one run searches for.
type Query struct {
	Phrase     string
	Categories []string
	MonthsBack int
	MaxRecords int
}

type Stats struct {
	Cutoff        time.Time
	Pages         int
	Entries       int
	Duplicates    int
	Dropped       int
	StaleRetries  int
	Discarded     int
	StoppedReason string
}

type Result struct {
	Records []Record
	Stats   Stats
}

type Engine struct {
	fetcher    ResourceFetcher
	images     ImageStore
	hasher     *checksum.Generator
	base       *observability.Logger
	logger     *observability.Logger
	now        func() time.Time
	datePolicy DatePolicy
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithDatePolicy(p DatePolicy) Option {
	return func(e *Engine) { e.datePolicy = p }
}

func NewEngine(fetcher ResourceFetcher, images ImageStore, logger *observability.Logger, opts ...Option) *Engine {
	e := &Engine{
		fetcher:    fetcher,
		images:     images,
		hasher:     checksum.NewGenerator(),
		base:       logger,
		logger:     logger.With("component", "engine"),
		now:        time.Now,
		datePolicy: DatePolicyAbort,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type crawlStep int

const (
	stepFetching crawlStep = iota
	stepPaginating
	stepDone
)

type pageOutcome int

const (
	pageComplete pageOutcome = iota
	pageStale
	pageCutoff
	pageFull
)

// run bundles what one execution of Run works on.
type run struct {
	query     Query
	cutoff    time.Time
	state     *CrawlState
	stats     *Stats
	dates     *DateParser
	extractor *Extractor
}

// Run configures the feed through session and walks its pages until the
// record cap, the date cutoff, an empty page or the last page is reached.
//
// The returned Result is never nil: on error it holds every record collected
// before the failure.
func (e *Engine) Run(ctx context.Context, session Session, q Query) (*Result, error) {
	now := e.now()
	r := &run{
		query:     q,
		cutoff:    Cutoff(now, q.MonthsBack),
		state:     newCrawlState(q.MaxRecords),
		stats:     &Stats{},
		dates:     NewDateParser(e.now),
		extractor: NewExtractor(q.Phrase, e.fetcher, e.images, e.base),
	}
	r.stats.Cutoff = r.cutoff

	e.logger.Info("Starting crawl",
		"phrase", q.Phrase,
		"categories", strings.Join(q.Categories, ","),
		"months_back", q.MonthsBack,
		"max_records", q.MaxRecords,
		"cutoff", r.cutoff.Format("2006-01-02"),
	)

	e.configure(ctx, session, q)

	err := e.loop(ctx, session, r)

	result := &Result{Records: r.state.Records(), Stats: *r.stats}
	if err != nil {
		e.logger.Error("Crawl failed",
			"records", len(result.Records),
			"error", err.Error(),
		)
		return result, err
	}

	e.logger.Info("Crawl completed",
		"records", len(result.Records),
		"pages", r.stats.Pages,
		"duplicates", r.stats.Duplicates,
		"stale_retries", r.stats.StaleRetries,
		"reason", r.stats.StoppedReason,
	)
	return result, nil
}

// configure applies query, filters and sort order. None of these failures
// stop the run: the engine reads whatever the feed then shows.
func (e *Engine) configure(ctx context.Context, session Session, q Query) {
	if err := session.SubmitQuery(ctx, q.Phrase); err != nil {
		e.logger.Error("Search not resolved", "error", err.Error())
	}
	if len(q.Categories) > 0 {
		if err := session.ApplyCategoryFilters(ctx, q.Categories); err != nil {
			e.logger.Warn("Category filters not applied", "error", err.Error())
		}
	}
	if err := session.SortNewestFirst(ctx); err != nil {
		e.logger.Warn("Sorting not resolved", "error", err.Error())
	}
}

func (e *Engine) loop(ctx context.Context, session Session, r *run) error {
	step := stepFetching
	attempt := 0
	counted := false

	for step != stepDone {
		switch step {
		case stepFetching:
			if r.state.len() >= r.query.MaxRecords {
				r.stats.StoppedReason = "max records reached"
				step = stepDone
				continue
			}

			e.logger.Info("Extracting articles", "page", r.stats.Pages+1, "records", r.state.len())

			entries, err := session.CurrentPageEntries(ctx)
			if err != nil && !IsStale(err) {
				r.stats.StoppedReason = "page entries unavailable"
				return &SessionError{Op: "current page entries", Err: err}
			}

			outcome := pageStale
			if err == nil {
				if len(entries) == 0 {
					r.stats.StoppedReason = fmt.Sprintf("no entries on page %d", r.stats.Pages+1)
					step = stepDone
					continue
				}
				if !counted {
					r.stats.Pages++
					counted = true
				}
				outcome, err = e.extractPage(ctx, r, entries)
				if err != nil {
					r.stats.StoppedReason = "date parse failure"
					return err
				}
			}

			switch outcome {
			case pageStale:
				r.stats.StaleRetries++
				if r.state.firstPage {
					n := r.state.discardRecords()
					r.stats.Discarded += n
					e.logger.Info("Stale page on first page, discarding collected records", "discarded", n)
				} else {
					e.logger.Info("Stale element reference, trying page again")
				}
				if attempt == 0 {
					attempt++
					continue
				}
				step = stepPaginating
			case pageCutoff:
				r.state.stop = true
				step = stepPaginating
			default:
				step = stepPaginating
			}

		case stepPaginating:
			if r.state.stop {
				r.stats.StoppedReason = "date cutoff reached"
				step = stepDone
				continue
			}
			if r.state.len() >= r.query.MaxRecords {
				r.stats.StoppedReason = "max records reached"
				step = stepDone
				continue
			}

			e.logger.Info("Requesting more articles")
			more, err := session.AdvancePage(ctx)
			if err != nil {
				e.logger.Warn("Error requesting more articles", "error", err.Error())
				r.stats.StoppedReason = "pagination failed"
				step = stepDone
				continue
			}
			if !more {
				e.logger.Info("No more articles to request")
				r.stats.StoppedReason = "no more pages"
				step = stepDone
				continue
			}

			r.state.firstPage = false
			attempt = 0
			counted = false
			step = stepFetching
		}
	}

	return nil
}

// extractPage walks one page's entries in order. The only error it returns is
// a fatal date parse failure.
func (e *Engine) extractPage(ctx context.Context, r *run, entries []Entry) (pageOutcome, error) {
	for i, entry := range entries {
		r.stats.Entries++

		headline, ok, err := entry.ReadField(ctx, FieldHeadline)
		if IsStale(err) {
			return pageStale, nil
		}
		title := strings.TrimSpace(headline)
		if err != nil || !ok || title == "" {
			r.stats.Dropped++
			e.logger.Warn("Entry without headline skipped", "index", i, "error", errString(err))
			continue
		}

		hash := e.hasher.TitleHash(title)
		if !r.state.reserve(hash) {
			r.stats.Duplicates++
			continue
		}

		rawDate, ok, err := entry.ReadField(ctx, FieldDate)
		if IsStale(err) {
			r.state.release(hash)
			return pageStale, nil
		}
		if err != nil || !ok {
			r.stats.Dropped++
			e.logger.Warn("Entry without date skipped", "title", title, "error", errString(err))
			continue
		}

		date, err := r.dates.Parse(rawDate)
		if err != nil {
			if e.datePolicy == DatePolicySkip {
				r.stats.Dropped++
				e.logger.Warn("Entry with unparseable date skipped", "title", title, "date_raw", rawDate)
				continue
			}
			return pageComplete, err
		}

		if date.Before(r.cutoff) {
			e.logger.Info("Entry older than cutoff, stopping",
				"title", title,
				"date", date.Format("2006-01-02"),
				"cutoff", r.cutoff.Format("2006-01-02"),
			)
			return pageCutoff, nil
		}

		e.logger.Info("Processing article", "number", r.state.len()+1, "title", title)

		rec, err := r.extractor.BuildRecord(ctx, entry, title, date)
		if err != nil {
			r.state.release(hash)
			return pageStale, nil
		}

		r.state.append(hash, rec)
		if r.state.len() >= r.query.MaxRecords {
			return pageFull, nil
		}
	}

	return pageComplete, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
