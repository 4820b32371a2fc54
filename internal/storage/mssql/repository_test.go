package mssql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/storage"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db, time.Second, observability.NewNopLogger()), mock
}

func sampleRow() *storage.ArticleRow {
	return &storage.ArticleRow{
		TitleHash:       "abc123",
		RunID:           "run-1",
		Phrase:          "Dollar",
		Date:            time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Title:           "Dollar climbs",
		Description:     "The Dollar hit $1,200",
		PictureFilename: "rates.jpg",
		SearchCount:     2,
		MoneyFound:      true,
		CheckSum:        "sum-1",
	}
}

func expectUpsert(mock sqlmock.Sqlmock, row *storage.ArticleRow) *sqlmock.ExpectedQuery {
	return mock.ExpectPrepare("MERGE INTO TblRobotArticles").
		ExpectQuery().
		WithArgs(
			sql.Named("TitleHash", row.TitleHash),
			sql.Named("CheckSum", row.CheckSum),
			sql.Named("RunID", row.RunID),
			sql.Named("Phrase", row.Phrase),
			sql.Named("DT", row.Date),
			sql.Named("Title", row.Title),
			sql.Named("Description", row.Description),
			sql.Named("PictureFilename", row.PictureFilename),
			sql.Named("SearchCount", row.SearchCount),
			sql.Named("MoneyFound", row.MoneyFound),
		)
}

func TestUpsertArticle(t *testing.T) {
	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		expected storage.Outcome
	}{
		{"new article", sqlmock.NewRows([]string{"action"}).AddRow("INSERT"), storage.Inserted},
		{"changed article", sqlmock.NewRows([]string{"action"}).AddRow("UPDATE"), storage.Updated},
		{"same checksum", sqlmock.NewRows([]string{"action"}), storage.Unchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			row := sampleRow()
			expectUpsert(mock, row).WillReturnRows(tt.rows)

			outcome, err := repo.UpsertArticle(context.Background(), row)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpsertArticleError(t *testing.T) {
	repo, mock := newMockRepo(t)
	row := sampleRow()
	dbErr := errors.New("deadlock victim")
	expectUpsert(mock, row).WillReturnError(dbErr)

	_, err := repo.UpsertArticle(context.Background(), row)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByPhrase(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(sql.Named("Phrase", "Dollar")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByPhrase(context.Background(), "Dollar")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
