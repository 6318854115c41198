// Package oat provides a minimal public API for building custom tooling
// on top of the oat archive tracker.
//
// Most automation should drive the oat CLI directly. This package
// exports only the essential types and functions needed for Go programs
// that want to read or update archive state programmatically.
package oat

import (
	"context"

	"github.com/oa-archive/oat/internal/config"
	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/storage/dolt"
	"github.com/oa-archive/oat/internal/types"
)

// Core types for working with archives
type (
	Archive       = types.Archive
	Status        = types.Status
	TaskCode      = types.TaskCode
	Event         = types.Event
	ArchiveFilter = storage.ArchiveFilter
)

// Open status constants, in pipeline order
const (
	StatusInactive       = types.StatusInactive
	StatusActive         = types.StatusActive
	StatusReadyForDraft  = types.StatusReadyForDraft
	StatusDraftCreated   = types.StatusDraftCreated
	StatusDraftValidated = types.StatusDraftValidated
	StatusPublished      = types.StatusPublished
	StatusDBUpdated      = types.StatusDBUpdated
)

// Closed status constants
const (
	StatusDataArchived    = types.StatusDataArchived
	StatusPublicationOnly = types.StatusPublicationOnly
	StatusException       = types.StatusException
)

// Store provides the minimal interface for programmatic access
type Store = storage.Store

// OpenStore opens an oat Dolt database for programmatic access. The
// path is the database directory, typically <project>/.oat/dolt.
func OpenStore(ctx context.Context, dbPath string) (Store, error) {
	return dolt.New(ctx, &dolt.Config{Path: dbPath})
}

// FindOatDir walks upward from the current directory looking for a .oat
// directory. Returns "" when none is found.
func FindOatDir() string {
	return config.FindOatDir()
}
