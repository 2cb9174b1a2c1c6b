// Package repo persists history entries. The Repository interface is the
// contract the persistence coordinator programs against; SQLite is the one
// conforming implementation, selected at construction time.
package repo

import (
	"context"

	"go.klb.dev/clipstash/internal/entry"
)

// Repository is durable storage for history entries. Any operation may fail;
// callers must treat failures as non-fatal and keep in-memory state as the
// source of truth until retried.
type Repository interface {
	// Save upserts entries by id. Idempotent.
	Save(ctx context.Context, entries []entry.Entry) error

	// Load returns up to limit entries, most recent first.
	Load(ctx context.Context, limit int) ([]*entry.Entry, error)

	// LoadAll returns every entry, most recent first.
	LoadAll(ctx context.Context) ([]*entry.Entry, error)

	// LoadPinned returns up to limit pinned entries, most recent first.
	LoadPinned(ctx context.Context, limit int) ([]*entry.Entry, error)

	// Delete removes the entry with id. Missing ids are not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes all entries, or only the unpinned ones when keepPinned
	// is set.
	Clear(ctx context.Context, keepPinned bool) error

	// ApplyChanges applies a batched delta atomically: inserted and updated
	// entries are upserted, removedIDs are deleted.
	ApplyChanges(ctx context.Context, inserted, updated []entry.Entry, removedIDs []string) error

	// Close releases the underlying store.
	Close() error
}
