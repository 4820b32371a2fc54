package storage

import (
	"context"
	"time"

	"rpa-news-robot/internal/checksum"
	"rpa-news-robot/internal/scraper"
)

// Outcome of archiving one article.
type Outcome string

const (
	Inserted  Outcome = "inserted"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

// ArticleRow is a collected record as archived, keyed by TitleHash.
type ArticleRow struct {
	TitleHash       string
	RunID           string
	Phrase          string
	Date            time.Time
	Title           string
	Description     string
	PictureFilename string
	SearchCount     int
	MoneyFound      bool
	CheckSum        string
}

// Archive stores the articles of every run.
type Archive interface {
	// UpsertArticle inserts the row or refreshes the stored one when its
	// checksum changed.
	UpsertArticle(ctx context.Context, row *ArticleRow) (Outcome, error)

	// CountByPhrase returns how many archived articles were found by phrase.
	CountByPhrase(ctx context.Context, phrase string) (int, error)

	Close() error
}

// RowsFromRecords converts one run's records into archive rows.
func RowsFromRecords(runID, phrase string, records []scraper.Record, gen *checksum.Generator) []ArticleRow {
	rows := make([]ArticleRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ArticleRow{
			TitleHash:       gen.TitleHash(rec.Title),
			RunID:           runID,
			Phrase:          phrase,
			Date:            rec.Date,
			Title:           rec.Title,
			Description:     rec.Description,
			PictureFilename: rec.PictureFilename,
			SearchCount:     rec.SearchCount,
			MoneyFound:      rec.MoneyFound,
			CheckSum:        gen.GenerateContentHash(rec.Title, rec.Description, rec.PictureFilename, rec.Date),
		})
	}
	return rows
}
