package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/storage"
)

// Repository archives articles in SQL Server table TblRobotArticles.
type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Archive = (*Repository)(nil)

// Open connects with the sqlserver driver and pings the server.
func Open(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewRepository(db, commandTimeout, logger), nil
}

func NewRepository(db *sql.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger.With("component", "archive"),
	}
}

const upsertArticle = `
	MERGE INTO TblRobotArticles AS target
	USING (SELECT @TitleHash AS TitleHash, @CheckSum AS CheckSum) AS source
	ON target.[TitleHash] = source.TitleHash
	WHEN MATCHED AND target.[CheckSum] <> source.CheckSum THEN
		UPDATE SET
			[RunID] = @RunID,
			[DT] = @DT,
			[Title] = @Title,
			[Description] = @Description,
			[PictureFilename] = @PictureFilename,
			[SearchCount] = @SearchCount,
			[MoneyFound] = @MoneyFound,
			[CheckSum] = @CheckSum
	WHEN NOT MATCHED THEN
		INSERT ([TitleHash], [RunID], [Phrase], [DT], [Title], [Description], [PictureFilename], [SearchCount], [MoneyFound], [CheckSum])
		VALUES (@TitleHash, @RunID, @Phrase, @DT, @Title, @Description, @PictureFilename, @SearchCount, @MoneyFound, @CheckSum)
	OUTPUT $action;
`

// UpsertArticle merges row on its title hash. A stored row with the same
// checksum is left untouched.
func (r *Repository) UpsertArticle(ctx context.Context, row *storage.ArticleRow) (storage.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	stmt, err := r.db.PrepareContext(ctx, upsertArticle)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
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
	).Scan(&action)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.Unchanged, nil
	case err != nil:
		return "", fmt.Errorf("failed to execute upsert: %w", err)
	case action == "INSERT":
		return storage.Inserted, nil
	default:
		return storage.Updated, nil
	}
}

func (r *Repository) CountByPhrase(ctx context.Context, phrase string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM TblRobotArticles WHERE Phrase = @Phrase`,
		sql.Named("Phrase", phrase),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
