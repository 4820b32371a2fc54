package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/media"
	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/report"
	"rpa-news-robot/internal/scraper"
	"rpa-news-robot/internal/storage"
)

const resultsPage = `<html><body><ol>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">March 10, 2024</span>
  <h4 class="css-2fgx4k">Dollar climbs</h4>
  <p class="css-16nhkrn">The Dollar hit $1,200.</p>
  <img class="css-rq4mmj" src="https://cdn.example.com/images/rates.jpg?w=600">
</li>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">March 9, 2024</span>
  <h4 class="css-2fgx4k">Quiet day</h4>
</li>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">%DATE%</span>
  <h4 class="css-2fgx4k">Old story</h4>
</li>
</ol></body></html>`

type staticFetcher struct{}

func (staticFetcher) Get(_ context.Context, rawURL string) ([]byte, error) {
	return []byte("img:" + rawURL), nil
}

type memoryArchive struct {
	mu   sync.Mutex
	rows []storage.ArticleRow
	err  error
}

func (a *memoryArchive) UpsertArticle(_ context.Context, row *storage.ArticleRow) (storage.Outcome, error) {
	if a.err != nil {
		return "", a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, *row)
	return storage.Inserted, nil
}

func (a *memoryArchive) CountByPhrase(context.Context, string) (int, error) {
	return len(a.rows), nil
}

func (a *memoryArchive) Close() error { return nil }

type recordingUploader struct {
	files []string
	err   error
}

func (u *recordingUploader) UploadFiles(_ context.Context, files []string) (int, error) {
	u.files = files
	if u.err != nil {
		return 0, u.err
	}
	return len(files), nil
}

type fixture struct {
	cfg      *config.Config
	archive  *memoryArchive
	uploader *recordingUploader
	released bool
}

func newOrchestrator(t *testing.T, oldDate string, openErr error) (*Orchestrator, *fixture) {
	t.Helper()
	logger := observability.NewNopLogger()

	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	f := &fixture{cfg: cfg, archive: &memoryArchive{}, uploader: &recordingUploader{}}

	page := strings.ReplaceAll(resultsPage, "%DATE%", oldDate)

	images := media.NewStore(cfg.Output.Dir)
	engine := scraper.NewEngine(staticFetcher{}, images, logger,
		scraper.WithClock(func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }))

	o := NewOrchestrator(cfg, logger, Deps{
		Open: func(context.Context) (scraper.Session, func() error, error) {
			if openErr != nil {
				return nil, nil, openErr
			}
			s, err := scraper.NewListingSession(scraper.DefaultSelectors(), nil, page)
			return s, func() error { f.released = true; return nil }, err
		},
		Engine:   engine,
		Images:   images,
		Report:   report.NewAssembler(report.NewExcelWriter(), logger),
		Archive:  f.archive,
		Uploader: f.uploader,
	})
	return o, f
}

func TestOrchestratorRun(t *testing.T) {
	o, f := newOrchestrator(t, "January 30, 2024", nil)
	stale := filepath.Join(f.cfg.Output.Dir, "previous.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "date cutoff reached", res.Stats.StoppedReason)
	assert.True(t, f.released)
	assert.NoFileExists(t, stale)

	rows, err := report.ReadRows(res.ReportPath)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "rates.jpg", rows[1][3])

	require.Len(t, f.archive.rows, 2)
	assert.Equal(t, res.RunID, f.archive.rows[0].RunID)
	assert.Equal(t, 2, res.Archived[storage.Inserted])

	assert.Equal(t, []string{filepath.Join(f.cfg.Output.Dir, "rates.jpg"), res.ReportPath}, f.uploader.files)
	assert.Equal(t, 2, res.Uploaded)
}

func TestOrchestratorOpenFailure(t *testing.T) {
	o, f := newOrchestrator(t, "January 30, 2024", errors.New("chrome not found"))

	res, err := o.Run(context.Background())
	var sessErr *scraper.SessionError
	require.True(t, errors.As(err, &sessErr))
	assert.Empty(t, res.Records)
	assert.NoFileExists(t, res.ReportPath)
	assert.Nil(t, f.uploader.files)
}

func TestOrchestratorReportsPartialRecordsOnCrawlFailure(t *testing.T) {
	o, f := newOrchestrator(t, "sometime", nil)

	res, err := o.Run(context.Background())
	var parseErr *scraper.DateParseError
	require.True(t, errors.As(err, &parseErr))

	require.Len(t, res.Records, 2)
	rows, readErr := report.ReadRows(res.ReportPath)
	require.NoError(t, readErr)
	assert.Len(t, rows, 3, "collected records are still written")
	assert.Len(t, f.archive.rows, 2)
}

func TestOrchestratorArchiveAndUploadFailuresAreNotFatal(t *testing.T) {
	o, f := newOrchestrator(t, "January 30, 2024", nil)
	f.archive.err = errors.New("db down")
	f.uploader.err = errors.New("no credentials")

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Zero(t, res.Uploaded)
	assert.Empty(t, res.Archived)
}
