// Package storage provides shared types for archive storage.
//
// The concrete storage implementation lives in the dolt sub-package.
// This package holds the interface and value types referenced by both
// the dolt implementation and its consumers (cmd/oat, internal/actions,
// internal/scanner, ...).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/oa-archive/oat/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
// Point lookups return (nil, nil) for absent archives; ErrNotFound is
// used by callers that need a hard failure instead of a sentinel.
var ErrNotFound = errors.New("not found")

// ArchiveFilter selects archives for List. Zero value selects everything.
// At most one of Status, Open, Closed, Statuses should be set.
type ArchiveFilter struct {
	Status   types.Status   // exact status match
	Open     bool           // every OPEN_* status
	Closed   bool           // every CLOSED_* status
	Statuses []types.Status // membership in an arbitrary status set
}

// Store is the interface satisfied by *dolt.Store.
// Consumers depend on this interface rather than the concrete type so
// that decorated implementations (telemetry wrapper, mocks) can be
// substituted.
type Store interface {
	Queries

	// RunInTransaction executes fn inside a single database transaction:
	// one logical unit of work (a scan pass, an action-sheet batch).
	// If fn returns an error the transaction is rolled back and the
	// archive set is left exactly as it was before the unit started.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Config key/value settings stored alongside the archives.
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	Close() error
}

// Queries are the read-only operations, available both on the store and
// inside a transaction.
type Queries interface {
	// GetArchive returns the archive for a publication id, or (nil, nil)
	// when no such archive exists.
	GetArchive(ctx context.Context, pubID string) (*types.Archive, error)

	// ListArchives returns archives matching the filter, ordered by
	// publication id.
	ListArchives(ctx context.Context, filter ArchiveFilter) ([]*types.Archive, error)

	// RemindersDue returns OPEN archives whose next reminder timestamp is
	// set and not after now, ordered by that timestamp.
	RemindersDue(ctx context.Context, now time.Time) ([]*types.Archive, error)

	// EventsSince returns events at or after since, newest first.
	EventsSince(ctx context.Context, since time.Time) ([]*types.Event, error)
}

// Tx exposes the mutating operations inside a unit of work.
//
// Field updates take a sparse patch: a map keyed by column name. Keys
// absent from the map retain their prior value; an explicit nil value
// clears the field. Keys are validated against a whitelist.
type Tx interface {
	Queries

	// UpsertArchive creates the archive if absent, otherwise applies the
	// patch to the existing row.
	UpsertArchive(ctx context.Context, pubID string, patch map[string]any) error

	// SetStatus updates the status plus any additional patch fields in a
	// single statement.
	SetStatus(ctx context.Context, pubID string, newStatus types.Status, patch map[string]any) error

	// InsertEvent appends an audit event. Events are never updated or
	// deleted.
	InsertEvent(ctx context.Context, ev *types.Event) error
}
