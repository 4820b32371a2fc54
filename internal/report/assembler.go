package report

import (
	"fmt"

	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/scraper"
)

// Columns is the fixed header of the report table.
var Columns = []string{"date", "title", "description", "picture_filename", "search_count", "money_found"}

const dateLayout = "2006-01-02"

// TableWriter persists a single table. Rows and columns are 1-based.
type TableWriter interface {
	CreateTable() error
	SetCell(row, col int, value any) error
	Save(path string) error
}

// PersistenceError reports a report table that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Assembler struct {
	writer TableWriter
	logger *observability.Logger
}

func NewAssembler(writer TableWriter, logger *observability.Logger) *Assembler {
	return &Assembler{
		writer: writer,
		logger: logger.With("component", "report"),
	}
}

// Write lays out records under the header row, in order, and saves the table
// to path. Every failure is returned as a *PersistenceError.
func (a *Assembler) Write(records []scraper.Record, path string) error {
	if err := a.writer.CreateTable(); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	for col, name := range Columns {
		if err := a.writer.SetCell(1, col+1, name); err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
	}

	for i, rec := range records {
		row := i + 2
		for col, value := range Row(rec) {
			if err := a.writer.SetCell(row, col+1, value); err != nil {
				return &PersistenceError{Path: path, Err: fmt.Errorf("row %d: %w", row, err)}
			}
		}
	}

	if err := a.writer.Save(path); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	a.logger.Info("Report saved", "path", path, "records", len(records))
	return nil
}

// Row is rec's cell values in Columns order.
func Row(rec scraper.Record) []any {
	return []any{
		rec.Date.Format(dateLayout),
		rec.Title,
		rec.Description,
		rec.PictureFilename,
		rec.SearchCount,
		rec.MoneyFound,
	}
}
