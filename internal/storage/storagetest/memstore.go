// Package storagetest provides an in-memory storage.Store for package
// tests that need archive state without an embedded database.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// MemStore implements storage.Store over maps. Single-goroutine tests
// only; the mutex guards against accidental parallel subtests.
type MemStore struct {
	mu       sync.Mutex
	archives map[string]*types.Archive
	events   []*types.Event
	config   map[string]string
	nextID   int64
}

// New returns an empty in-memory store.
func New() *MemStore {
	return &MemStore{
		archives: make(map[string]*types.Archive),
		config:   make(map[string]string),
	}
}

// Seed inserts an archive directly, bypassing the patch path.
func (m *MemStore) Seed(a *types.Archive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.archives[a.PublicationID] = &cp
}

// Events returns all recorded events in insertion order.
func (m *MemStore) Events() []*types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemStore) GetArchive(_ context.Context, pubID string) (*types.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.archives[pubID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) ListArchives(_ context.Context, filter storage.ArchiveFilter) ([]*types.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Archive
	for _, a := range m.archives {
		if !matches(a, filter) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicationID < out[j].PublicationID })
	return out, nil
}

func matches(a *types.Archive, filter storage.ArchiveFilter) bool {
	switch {
	case filter.Status != "":
		return a.Status == filter.Status
	case filter.Open:
		return a.Status.IsOpen()
	case filter.Closed:
		return a.Status.IsClosed()
	case len(filter.Statuses) > 0:
		for _, s := range filter.Statuses {
			if a.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

func (m *MemStore) RemindersDue(_ context.Context, now time.Time) ([]*types.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Archive
	for _, a := range m.archives {
		if a.Status.IsOpen() && a.NextReminderAt != nil && !a.NextReminderAt.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextReminderAt.Equal(*out[j].NextReminderAt) {
			return out[i].PublicationID < out[j].PublicationID
		}
		return out[i].NextReminderAt.Before(*out[j].NextReminderAt)
	})
	return out, nil
}

func (m *MemStore) EventsSince(_ context.Context, since time.Time) ([]*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Event
	for i := len(m.events) - 1; i >= 0; i-- {
		if !m.events[i].At.Before(since) {
			cp := *m.events[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemStore) RunInTransaction(_ context.Context, fn func(tx storage.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Snapshot for rollback.
	saved := make(map[string]*types.Archive, len(m.archives))
	for k, v := range m.archives {
		cp := *v
		saved[k] = &cp
	}
	savedEvents := len(m.events)

	if err := fn(&memTx{store: m}); err != nil {
		m.archives = saved
		m.events = m.events[:savedEvents]
		return err
	}
	return nil
}

func (m *MemStore) SetConfig(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
	return nil
}

func (m *MemStore) GetConfig(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config[key], nil
}

func (m *MemStore) Close() error { return nil }

// memTx operates on the already-locked store.
type memTx struct {
	store *MemStore
}

func (t *memTx) GetArchive(_ context.Context, pubID string) (*types.Archive, error) {
	a, ok := t.store.archives[pubID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (t *memTx) ListArchives(_ context.Context, filter storage.ArchiveFilter) ([]*types.Archive, error) {
	var out []*types.Archive
	for _, a := range t.store.archives {
		if matches(a, filter) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicationID < out[j].PublicationID })
	return out, nil
}

func (t *memTx) RemindersDue(_ context.Context, now time.Time) ([]*types.Archive, error) {
	var out []*types.Archive
	for _, a := range t.store.archives {
		if a.Status.IsOpen() && a.NextReminderAt != nil && !a.NextReminderAt.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *memTx) EventsSince(_ context.Context, since time.Time) ([]*types.Event, error) {
	var out []*types.Event
	for i := len(t.store.events) - 1; i >= 0; i-- {
		if !t.store.events[i].At.Before(since) {
			cp := *t.store.events[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *memTx) UpsertArchive(_ context.Context, pubID string, patch map[string]any) error {
	if pubID == "" {
		return fmt.Errorf("publication id is required")
	}
	a, ok := t.store.archives[pubID]
	if !ok {
		a = &types.Archive{PublicationID: pubID}
		t.store.archives[pubID] = a
	}
	return applyPatch(a, patch)
}

func (t *memTx) SetStatus(_ context.Context, pubID string, newStatus types.Status, patch map[string]any) error {
	a, ok := t.store.archives[pubID]
	if !ok {
		return fmt.Errorf("archive %q: %w", pubID, storage.ErrNotFound)
	}
	if !newStatus.IsValid() {
		return fmt.Errorf("invalid status: %s", newStatus)
	}
	a.Status = newStatus
	return applyPatch(a, patch)
}

func (t *memTx) InsertEvent(_ context.Context, ev *types.Event) error {
	t.store.nextID++
	cp := *ev
	cp.ID = t.store.nextID
	t.store.events = append(t.store.events, &cp)
	ev.ID = cp.ID
	return nil
}

func applyPatch(a *types.Archive, patch map[string]any) error {
	for col, v := range patch {
		switch col {
		case "folder_path":
			a.FolderPath = v.(string)
		case "first_seen_at":
			a.FirstSeenAt = toTime(v)
		case "became_active_at":
			a.BecameActiveAt = toTimePtr(v)
		case "last_seen_at":
			a.LastSeenAt = toTime(v)
		case "last_changed_at":
			a.LastChangedAt = toTimePtr(v)
		case "status":
			a.Status = v.(types.Status)
		case "final_pid":
			a.FinalPID = toStringPtr(v)
		case "final_url":
			a.FinalURL = toStringPtr(v)
		case "notes":
			if v == nil {
				a.Notes = ""
			} else {
				a.Notes = v.(string)
			}
		case "last_notified_at":
			a.LastNotifiedAt = toTimePtr(v)
		case "reminder_count":
			a.ReminderCount = v.(int)
		case "next_reminder_at":
			a.NextReminderAt = toTimePtr(v)
		case "missing_folder":
			a.MissingFolder = v.(bool)
		case "missing_folder_since":
			a.MissingFolderSince = toTimePtr(v)
		default:
			return fmt.Errorf("unknown archive field %q", col)
		}
	}
	return nil
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val != nil {
			return *val
		}
	}
	return time.Time{}
}

func toTimePtr(v any) *time.Time {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		cp := val
		return &cp
	case *time.Time:
		if val == nil {
			return nil
		}
		cp := *val
		return &cp
	}
	return nil
}

func toStringPtr(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		cp := val
		return &cp
	case *string:
		if val == nil {
			return nil
		}
		cp := *val
		return &cp
	}
	return nil
}
