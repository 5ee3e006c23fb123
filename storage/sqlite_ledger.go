package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"movie-notifier/models"
)

// SQLiteLedger is the embedded, file-backed Ledger backend.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) the database file at path and
// ensures the schema exists. Intermediate directories are created
// automatically.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// single writer only
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Init creates the shown_movies table if it does not exist yet.
func (l *SQLiteLedger) Init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS shown_movies (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT UNIQUE NOT NULL,
			genre_list   TEXT NOT NULL DEFAULT '',
			release_year TEXT NOT NULL DEFAULT '',
			quality      TEXT NOT NULL DEFAULT '',
			rating       TEXT NOT NULL DEFAULT '',
			story        TEXT NOT NULL DEFAULT '',
			link         TEXT NOT NULL DEFAULT '',
			hashtag      TEXT NOT NULL DEFAULT '',
			added_time   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: init schema: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Seen(ctx context.Context, title string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		"SELECT 1 FROM shown_movies WHERE title = ?", title).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: seen lookup for %q: %w", title, err)
	}
	return true, nil
}

func (l *SQLiteLedger) MarkSeen(ctx context.Context, rec *models.ShownRecord) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO shown_movies
			(title, genre_list, release_year, quality, rating, story, link, hashtag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Title, rec.GenreList, rec.ReleaseYear, rec.Quality,
		rec.Rating, rec.Story, rec.Link, rec.Hashtag)
	if err != nil {
		return false, fmt.Errorf("sqlite: mark seen %q: %w", rec.Title, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: mark seen %q: %w", rec.Title, err)
	}
	return n > 0, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
