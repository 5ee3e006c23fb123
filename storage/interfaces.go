package storage

import (
	"context"

	"movie-notifier/models"
)

// Ledger is the durable record of titles that have already been
// reported. It is the single source of truth for "has this been seen";
// all backends key records by title alone.
type Ledger interface {
	// Init ensures the backing table exists. Safe to call on every startup.
	Init() error

	// Seen reports whether a record with this exact title exists. A read
	// failure is returned to the caller and must never be silently
	// treated as "not seen" — that would risk duplicate notifications.
	Seen(ctx context.Context, title string) (bool, error)

	// MarkSeen inserts the record unless a row with the same title
	// already exists, as a single atomic conditional insert. It reports
	// whether a new row was written; an existing title is a no-op, not
	// an error.
	MarkSeen(ctx context.Context, rec *models.ShownRecord) (bool, error)

	Close() error
}
