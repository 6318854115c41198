package dolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// testTimeout is the maximum time for any single test operation. The
// embedded Dolt driver can be slow on first open.
const testTimeout = 30 * time.Second

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), testTimeout)
}

// skipIfNoDolt skips the test if Dolt is not installed
func skipIfNoDolt(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("dolt"); err != nil {
		t.Skip("Dolt not installed, skipping test")
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	skipIfNoDolt(t)

	ctx, cancel := testContext(t)
	defer cancel()

	store, err := New(ctx, &Config{
		Path:           filepath.Join(t.TempDir(), "dolt"),
		Database:       "testdb",
		CommitterName:  "test",
		CommitterEmail: "test@example.com",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedArchive inserts a minimal valid archive row.
func seedArchive(t *testing.T, store *Store, pubID string, status types.Status, extra map[string]any) {
	t.Helper()
	ctx, cancel := testContext(t)
	defer cancel()

	seen := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	patch := map[string]any{
		"folder_path":   "/data/" + pubID,
		"first_seen_at": seen,
		"last_seen_at":  seen,
		"status":        status,
	}
	for k, v := range extra {
		patch[k] = v
	}
	err := store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.UpsertArchive(ctx, pubID, patch)
	})
	if err != nil {
		t.Fatalf("failed to seed archive %s: %v", pubID, err)
	}
}

func TestNewStore(t *testing.T) {
	skipIfNoDolt(t)

	ctx, cancel := testContext(t)
	defer cancel()

	dbPath := filepath.Join(t.TempDir(), "nested", "dolt")
	store, err := New(ctx, &Config{Path: dbPath})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database directory not created: %v", err)
	}

	// Reopening an existing database must also work (schema fast path).
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	store2, err := New(ctx, &Config{Path: dbPath})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	store2.Close()
}

func TestConfigRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	if err := store.SetConfig(ctx, "actor", "alice"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	got, err := store.GetConfig(ctx, "actor")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got != "alice" {
		t.Errorf("GetConfig = %q, want %q", got, "alice")
	}

	// Overwrite
	if err := store.SetConfig(ctx, "actor", "bob"); err != nil {
		t.Fatalf("SetConfig overwrite failed: %v", err)
	}
	got, _ = store.GetConfig(ctx, "actor")
	if got != "bob" {
		t.Errorf("GetConfig after overwrite = %q, want %q", got, "bob")
	}

	// Missing keys come back empty, not as an error.
	got, err = store.GetConfig(ctx, "missing")
	if err != nil || got != "" {
		t.Errorf("GetConfig(missing) = %q, %v, want empty, nil", got, err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	became := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	seedArchive(t, store, "PUB1", types.StatusActive, map[string]any{
		"became_active_at": became,
		"reminder_count":   2,
		"notes":            "first contact made",
	})

	a, err := store.GetArchive(ctx, "PUB1")
	if err != nil {
		t.Fatalf("GetArchive failed: %v", err)
	}
	if a == nil {
		t.Fatal("GetArchive returned nil for existing archive")
	}
	if a.Status != types.StatusActive {
		t.Errorf("status = %s, want %s", a.Status, types.StatusActive)
	}
	if a.BecameActiveAt == nil || !a.BecameActiveAt.Equal(became) {
		t.Errorf("became_active_at = %v, want %v", a.BecameActiveAt, became)
	}
	if a.ReminderCount != 2 {
		t.Errorf("reminder_count = %d, want 2", a.ReminderCount)
	}
	if a.Notes != "first contact made" {
		t.Errorf("notes = %q", a.Notes)
	}

	// Absent archive is (nil, nil), not an error.
	a, err = store.GetArchive(ctx, "NOPE")
	if err != nil || a != nil {
		t.Errorf("GetArchive(absent) = %v, %v, want nil, nil", a, err)
	}
}

func TestSparsePatch(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	next := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	seedArchive(t, store, "PUB1", types.StatusActive, map[string]any{
		"next_reminder_at": next,
		"notes":            "keep me",
	})

	// Patch one field; the rest must be retained.
	err := store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.UpsertArchive(ctx, "PUB1", map[string]any{"reminder_count": 1})
	})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	a, _ := store.GetArchive(ctx, "PUB1")
	if a.ReminderCount != 1 {
		t.Errorf("reminder_count = %d, want 1", a.ReminderCount)
	}
	if a.Notes != "keep me" {
		t.Errorf("notes clobbered: %q", a.Notes)
	}
	if a.NextReminderAt == nil || !a.NextReminderAt.Equal(next) {
		t.Errorf("next_reminder_at clobbered: %v", a.NextReminderAt)
	}

	// Explicit nil clears.
	err = store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.UpsertArchive(ctx, "PUB1", map[string]any{"next_reminder_at": nil})
	})
	if err != nil {
		t.Fatalf("nil patch failed: %v", err)
	}
	a, _ = store.GetArchive(ctx, "PUB1")
	if a.NextReminderAt != nil {
		t.Errorf("next_reminder_at not cleared: %v", a.NextReminderAt)
	}

	// Unknown fields are rejected.
	err = store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.UpsertArchive(ctx, "PUB1", map[string]any{"nope": 1})
	})
	if err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestSetStatusNotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	err := store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.SetStatus(ctx, "GHOST", types.StatusActive, nil)
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListArchivesFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	seedArchive(t, store, "A1", types.StatusInactive, nil)
	seedArchive(t, store, "A2", types.StatusActive, nil)
	seedArchive(t, store, "A3", types.StatusDataArchived, nil)
	seedArchive(t, store, "A4", types.StatusException, nil)

	ids := func(as []*types.Archive) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.PublicationID)
		}
		return out
	}

	open, err := store.ListArchives(ctx, storage.ArchiveFilter{Open: true})
	if err != nil {
		t.Fatalf("ListArchives(open) failed: %v", err)
	}
	if got := fmt.Sprint(ids(open)); got != "[A1 A2]" {
		t.Errorf("open = %s, want [A1 A2]", got)
	}

	closed, _ := store.ListArchives(ctx, storage.ArchiveFilter{Closed: true})
	if got := fmt.Sprint(ids(closed)); got != "[A3 A4]" {
		t.Errorf("closed = %s, want [A3 A4]", got)
	}

	active, _ := store.ListArchives(ctx, storage.ArchiveFilter{Status: types.StatusActive})
	if got := fmt.Sprint(ids(active)); got != "[A2]" {
		t.Errorf("status filter = %s, want [A2]", got)
	}

	some, _ := store.ListArchives(ctx, storage.ArchiveFilter{
		Statuses: []types.Status{types.StatusInactive, types.StatusException},
	})
	if got := fmt.Sprint(ids(some)); got != "[A1 A4]" {
		t.Errorf("statuses filter = %s, want [A1 A4]", got)
	}

	all, _ := store.ListArchives(ctx, storage.ArchiveFilter{})
	if len(all) != 4 {
		t.Errorf("unfiltered = %d archives, want 4", len(all))
	}
}

func TestRemindersDue(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	seedArchive(t, store, "DUE2", types.StatusActive, map[string]any{"next_reminder_at": now.Add(-time.Hour)})
	seedArchive(t, store, "DUE1", types.StatusActive, map[string]any{"next_reminder_at": now.Add(-2 * time.Hour)})
	seedArchive(t, store, "LATER", types.StatusActive, map[string]any{"next_reminder_at": now.Add(time.Hour)})
	seedArchive(t, store, "NONE", types.StatusActive, nil)
	// Closed archives never get reminders, even with a stale schedule.
	seedArchive(t, store, "SHUT", types.StatusException, map[string]any{"next_reminder_at": now.Add(-time.Hour)})

	due, err := store.RemindersDue(ctx, now)
	if err != nil {
		t.Fatalf("RemindersDue failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d archives, want 2", len(due))
	}
	// Ordered by due time, oldest first.
	if due[0].PublicationID != "DUE1" || due[1].PublicationID != "DUE2" {
		t.Errorf("order = [%s %s], want [DUE1 DUE2]", due[0].PublicationID, due[1].PublicationID)
	}
}

func TestEvents(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	seedArchive(t, store, "PUB1", types.StatusActive, nil)

	old := types.StatusActive
	newStatus := types.StatusReadyForDraft
	base := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	err := store.RunInTransaction(ctx, func(tx storage.Tx) error {
		for i := 0; i < 3; i++ {
			ev := &types.Event{
				At:            base.Add(time.Duration(i) * time.Hour),
				PublicationID: "PUB1",
				Action:        "qa_pass",
				OldStatus:     &old,
				NewStatus:     &newStatus,
				Source:        types.SourceActionSheet,
			}
			if err := tx.InsertEvent(ctx, ev); err != nil {
				return err
			}
			if ev.ID == 0 {
				return fmt.Errorf("event id not assigned")
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert events failed: %v", err)
	}

	events, err := store.EventsSince(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("EventsSince failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	// Newest first.
	if !events[0].At.After(events[1].At) {
		t.Errorf("events not in reverse chronological order")
	}
	if *events[0].NewStatus != types.StatusReadyForDraft {
		t.Errorf("new_status = %s", *events[0].NewStatus)
	}
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := testContext(t)
	defer cancel()

	seedArchive(t, store, "PUB1", types.StatusActive, nil)

	sentinel := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.SetStatus(ctx, "PUB1", types.StatusReadyForDraft, nil); err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, &types.Event{
			At:            time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			PublicationID: "PUB1",
			Action:        "qa_pass",
			Source:        types.SourceActionSheet,
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	a, _ := store.GetArchive(ctx, "PUB1")
	if a.Status != types.StatusActive {
		t.Errorf("status = %s after rollback, want %s", a.Status, types.StatusActive)
	}
	events, _ := store.EventsSince(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(events) != 0 {
		t.Errorf("events = %d after rollback, want 0", len(events))
	}
}

func TestSplitStatements(t *testing.T) {
	blob := `-- comment only
;
CREATE TABLE a (x INT);

CREATE INDEX i ON a(x);
`
	stmts := splitStatements(blob)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %v", len(stmts), stmts)
	}
}
