package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"movie-notifier/models"
	"movie-notifier/utils"
)

// PostgresLedger is the networked Ledger backend.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger opens a connection to PostgreSQL, waits for the
// server to become reachable, and ensures the schema exists.
func NewPostgresLedger(dsn string, logger *utils.Logger) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do(context.Background(), "postgres-ping", db.Ping); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	l := &PostgresLedger{db: db}
	if err := l.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Init creates the shown_movies table if it does not exist yet.
func (l *PostgresLedger) Init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS shown_movies (
			id           SERIAL PRIMARY KEY,
			title        TEXT UNIQUE NOT NULL,
			genre_list   TEXT        NOT NULL DEFAULT '',
			release_year TEXT        NOT NULL DEFAULT '',
			quality      TEXT        NOT NULL DEFAULT '',
			rating       TEXT        NOT NULL DEFAULT '',
			story        TEXT        NOT NULL DEFAULT '',
			link         TEXT        NOT NULL DEFAULT '',
			hashtag      TEXT        NOT NULL DEFAULT '',
			added_time   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres: init schema: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Seen(ctx context.Context, title string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		"SELECT 1 FROM shown_movies WHERE title = $1", title).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: seen lookup for %q: %w", title, err)
	}
	return true, nil
}

func (l *PostgresLedger) MarkSeen(ctx context.Context, rec *models.ShownRecord) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO shown_movies
			(title, genre_list, release_year, quality, rating, story, link, hashtag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (title) DO NOTHING
	`, rec.Title, rec.GenreList, rec.ReleaseYear, rec.Quality,
		rec.Rating, rec.Story, rec.Link, rec.Hashtag)
	if err != nil {
		return false, fmt.Errorf("postgres: mark seen %q: %w", rec.Title, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: mark seen %q: %w", rec.Title, err)
	}
	return n > 0, nil
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
