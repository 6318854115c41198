// Package scanner reconciles the watched folder tree with the archive
// store. Each immediate subdirectory of the root is one publication;
// the folder name is the publication id.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// Options configures one scan pass.
type Options struct {
	// Root is the watched directory containing one folder per publication.
	Root string
	// FirstReminderDelay is how long after activation the first reminder
	// is scheduled.
	FirstReminderDelay time.Duration
}

// ScanResult buckets the publications touched by one pass.
type ScanResult struct {
	NewInactive []string `json:"new_inactive,omitempty"`
	NewActive   []string `json:"new_active,omitempty"`
	Activated   []string `json:"activated,omitempty"`
	Changed     []string `json:"changed,omitempty"`
	Missing     []string `json:"missing,omitempty"`
	Unchanged   []string `json:"unchanged,omitempty"`
}

// Summary renders the bucket counts for terminal output.
func (r *ScanResult) Summary() string {
	var parts []string
	add := func(label string, ids []string) {
		if len(ids) > 0 {
			parts = append(parts, fmt.Sprintf("  %s %d", label, len(ids)))
		}
	}
	add("New (inactive):", r.NewInactive)
	add("New (active):  ", r.NewActive)
	add("Activated:     ", r.Activated)
	add("Changed:       ", r.Changed)
	add("Missing:       ", r.Missing)
	add("Unchanged:     ", r.Unchanged)
	if len(parts) == 0 {
		return "  No folders found."
	}
	return strings.Join(parts, "\n")
}

// hasFiles reports whether any regular file exists under dir,
// recursively. Unreadable subtrees count as empty.
func hasFiles(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// Scan walks the root and reconciles folder state with the store: new
// folders create archives, reappearing folders clear the missing flag,
// empty-to-nonempty folders promote OPEN_INACTIVE to OPEN_ACTIVE, and
// unseen OPEN archives are flagged missing. The whole pass runs in one
// store transaction.
func Scan(ctx context.Context, store storage.Store, opts Options, now time.Time) (*ScanResult, error) {
	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("watched root not found: %s", opts.Root)
	}

	entries, err := os.ReadDir(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read watched root: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	result := &ScanResult{}
	found := make(map[string]bool)

	err = store.RunInTransaction(ctx, func(tx storage.Tx) error {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pubID := entry.Name()
			found[pubID] = true
			folder := filepath.Join(opts.Root, pubID)
			active := hasFiles(folder)

			existing, err := tx.GetArchive(ctx, pubID)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := createArchive(ctx, tx, pubID, folder, active, opts, now, result); err != nil {
					return err
				}
				continue
			}
			if err := updateArchive(ctx, tx, existing, active, opts, now, result); err != nil {
				return err
			}
		}

		return flagMissing(ctx, tx, found, now, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func createArchive(ctx context.Context, tx storage.Tx, pubID, folder string, active bool, opts Options, now time.Time, result *ScanResult) error {
	if active {
		err := tx.UpsertArchive(ctx, pubID, map[string]any{
			"folder_path":      folder,
			"first_seen_at":    now,
			"became_active_at": now,
			"last_seen_at":     now,
			"last_changed_at":  now,
			"status":           types.StatusActive,
			"next_reminder_at": now.Add(opts.FirstReminderDelay),
		})
		if err != nil {
			return err
		}
		if err := insertScanEvent(ctx, tx, pubID, types.ActionNewActive, nil, types.StatusActive, "", now); err != nil {
			return err
		}
		result.NewActive = append(result.NewActive, pubID)
		return nil
	}

	err := tx.UpsertArchive(ctx, pubID, map[string]any{
		"folder_path":   folder,
		"first_seen_at": now,
		"last_seen_at":  now,
		"status":        types.StatusInactive,
	})
	if err != nil {
		return err
	}
	if err := insertScanEvent(ctx, tx, pubID, types.ActionNewInactive, nil, types.StatusInactive, "", now); err != nil {
		return err
	}
	result.NewInactive = append(result.NewInactive, pubID)
	return nil
}

func updateArchive(ctx context.Context, tx storage.Tx, existing *types.Archive, active bool, opts Options, now time.Time, result *ScanResult) error {
	pubID := existing.PublicationID
	patch := map[string]any{"last_seen_at": now}
	if existing.MissingFolder {
		patch["missing_folder"] = false
		patch["missing_folder_since"] = nil
	}

	switch {
	case existing.Status == types.StatusInactive && active:
		patch["status"] = types.StatusActive
		patch["became_active_at"] = now
		patch["last_changed_at"] = now
		patch["next_reminder_at"] = now.Add(opts.FirstReminderDelay)
		if err := tx.UpsertArchive(ctx, pubID, patch); err != nil {
			return err
		}
		old := types.StatusInactive
		if err := insertScanEvent(ctx, tx, pubID, types.ActionBecameActive, &old, types.StatusActive, "", now); err != nil {
			return err
		}
		result.Activated = append(result.Activated, pubID)

	case active && existing.Status != types.StatusInactive:
		if err := tx.UpsertArchive(ctx, pubID, patch); err != nil {
			return err
		}
		result.Changed = append(result.Changed, pubID)

	default:
		if err := tx.UpsertArchive(ctx, pubID, patch); err != nil {
			return err
		}
		result.Unchanged = append(result.Unchanged, pubID)
	}
	return nil
}

// flagMissing marks OPEN archives whose folder was not observed.
func flagMissing(ctx context.Context, tx storage.Tx, found map[string]bool, now time.Time, result *ScanResult) error {
	open, err := tx.ListArchives(ctx, storage.ArchiveFilter{Open: true})
	if err != nil {
		return err
	}
	for _, a := range open {
		if found[a.PublicationID] || a.MissingFolder {
			continue
		}
		err := tx.UpsertArchive(ctx, a.PublicationID, map[string]any{
			"missing_folder":       true,
			"missing_folder_since": now,
		})
		if err != nil {
			return err
		}
		if err := insertScanEvent(ctx, tx, a.PublicationID, types.ActionFolderMissing, &a.Status, a.Status, "Folder not found during scan", now); err != nil {
			return err
		}
		result.Missing = append(result.Missing, a.PublicationID)
	}
	return nil
}

func insertScanEvent(ctx context.Context, tx storage.Tx, pubID, action string, old *types.Status, newStatus types.Status, note string, now time.Time) error {
	ev := &types.Event{
		At:            now,
		PublicationID: pubID,
		Action:        action,
		OldStatus:     old,
		NewStatus:     &newStatus,
		Source:        types.SourceScanner,
	}
	if note != "" {
		ev.Note = &note
	}
	return tx.InsertEvent(ctx, ev)
}
