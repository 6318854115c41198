// Package actions applies operator-edited action sheets to the archive
// store. The sheet is a tab-delimited file of (publication, task) rows;
// rows marked done are validated, applied, audited, and moved into an
// append-only history file, and the sheet is rewritten with whatever
// remains pending.
package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oa-archive/oat/internal/status"
	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// Options controls reminder scheduling and where applied rows go.
type Options struct {
	// HistoryPath is the append-only log of applied rows.
	HistoryPath string
	// ReminderInterval is the delay before the next reminder after a
	// remind_sent is applied.
	ReminderInterval time.Duration
	// MaxReminders caps how many reminders are sent per archive; once
	// reached, no further reminder is scheduled.
	MaxReminders int
}

// ApplyResult summarizes one apply run. Errors and warnings are
// row-scoped diagnostics: an errored row stays pending, a warned row is
// applied anyway.
type ApplyResult struct {
	Applied  int      `json:"applied"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Summary renders the result for terminal output.
func (r *ApplyResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applied: %d\nSkipped: %d", r.Applied, r.Skipped)
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings: %d", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "\n  - %s", w)
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\nErrors: %d", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n  - %s", e)
		}
	}
	return b.String()
}

// Apply reads the sheet at sheetPath, applies every row marked done
// against the store, appends applied rows to the history file, and
// rewrites the sheet with the remaining rows.
//
// Row-scoped problems (unknown publication, invalid transition) become
// entries in the result and leave their row pending; infrastructural
// failures abort the whole run with the store rolled back.
func Apply(ctx context.Context, store storage.Store, sheetPath string, opts Options, now time.Time) (*ApplyResult, error) {
	sheet, err := ReadSheet(sheetPath)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{}
	applied := make(map[int]bool)

	err = store.RunInTransaction(ctx, func(tx storage.Tx) error {
		for i, row := range sheet.Rows {
			ok, err := applyRow(ctx, tx, i, row, opts, now, result)
			if err != nil {
				return err
			}
			if ok {
				applied[i] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The history append and sheet rewrite happen after the database
	// commit; a crash between the two can duplicate or drop a row across
	// the files. Accepted risk for a single-operator tool.
	if len(applied) > 0 {
		var appliedRows []Row
		for i, row := range sheet.Rows {
			if applied[i] {
				appliedRows = append(appliedRows, row)
			}
		}
		if err := appendHistory(opts.HistoryPath, sheet.Columns, appliedRows, now.Format(time.DateTime)); err != nil {
			return nil, err
		}
	}

	var remaining []Row
	for i, row := range sheet.Rows {
		if !applied[i] {
			remaining = append(remaining, row)
		}
	}
	if err := WriteSheet(sheetPath, sheet.Columns, remaining); err != nil {
		return nil, err
	}

	return result, nil
}

// applyRow processes a single row. It returns true when the row was
// applied (and must leave the pending set); a false return with nil
// error means the row stays pending. Errors returned are
// infrastructural and abort the batch.
func applyRow(ctx context.Context, tx storage.Tx, i int, row Row, opts Options, now time.Time, result *ApplyResult) (bool, error) {
	done := strings.TrimSpace(row["done"])
	if done != "1" && done != "2" {
		result.Skipped++
		return false, nil
	}

	pubID := strings.TrimSpace(row["publication_id"])
	task := types.TaskCode(strings.TrimSpace(row["task_code"]))
	pid := strings.TrimSpace(row["pid"])
	url := strings.TrimSpace(row["url"])
	note := strings.TrimSpace(row["note"])

	archive, err := tx.GetArchive(ctx, pubID)
	if err != nil {
		return false, err
	}
	if archive == nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Row %d: publication %q not in database", i+1, pubID))
		return false, nil
	}

	oldStatus := archive.Status

	mergeFields := func() map[string]any {
		patch := map[string]any{}
		if pid != "" {
			patch["final_pid"] = pid
		}
		if url != "" {
			patch["final_url"] = url
		}
		if note != "" {
			patch["notes"] = archive.AppendNote(note, now)
		}
		return patch
	}

	event := func(action string, newStatus types.Status) *types.Event {
		ev := &types.Event{
			At:            now,
			PublicationID: pubID,
			Action:        action,
			OldStatus:     &oldStatus,
			NewStatus:     &newStatus,
			Source:        types.SourceActionSheet,
		}
		if pid != "" {
			ev.PID = &pid
		}
		if url != "" {
			ev.URL = &url
		}
		if note != "" {
			ev.Note = &note
		}
		return ev
	}

	// done=2: full closure shortcut, overrides the stated task.
	if done == "2" {
		patch := mergeFields()
		newStatus := types.StatusDataArchived
		if pid == "" && !archive.HasPID() {
			newStatus = types.StatusException
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Row %d (%s): done=2 with no PID; closing as %s", i+1, pubID, types.StatusException))
		}
		patch["last_changed_at"] = now
		patch["next_reminder_at"] = nil
		if err := tx.SetStatus(ctx, pubID, newStatus, patch); err != nil {
			return false, err
		}
		if err := tx.InsertEvent(ctx, event(types.ActionFullClosure, newStatus)); err != nil {
			return false, err
		}
		result.Applied++
		return true, nil
	}

	// done=1 with PID/URL evidence: fast-track straight to published.
	// Deliberately bypasses transition validation; operators use it to
	// enter outcomes already known out of band.
	if (pid != "" || url != "") && task != types.TaskRemindSent && task != types.TaskQAHold {
		if looksLikePaperDOI(pid) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Row %d (%s): PID %q looks like a paper DOI, not a dataset DOI", i+1, pubID, pid))
		}
		patch := mergeFields()
		patch["last_changed_at"] = now
		if err := tx.SetStatus(ctx, pubID, types.StatusPublished, patch); err != nil {
			return false, err
		}
		if err := tx.InsertEvent(ctx, event(types.ActionFastTrackPublished, types.StatusPublished)); err != nil {
			return false, err
		}
		result.Applied++
		return true, nil
	}

	// done=1 standard flow.
	newStatus, err := status.Resolve(oldStatus, task)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Row %d (%s): %v", i+1, pubID, err))
		return false, nil
	}

	if task == types.TaskDepositPublished && looksLikePaperDOI(pid) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Row %d (%s): PID %q looks like a paper DOI, not a dataset DOI", i+1, pubID, pid))
	}

	switch task {
	case types.TaskRemindSent:
		count := archive.ReminderCount + 1
		patch := map[string]any{
			"last_notified_at": now,
			"reminder_count":   count,
		}
		if count < opts.MaxReminders {
			patch["next_reminder_at"] = now.Add(opts.ReminderInterval)
		} else {
			patch["next_reminder_at"] = nil
		}
		if err := tx.UpsertArchive(ctx, pubID, patch); err != nil {
			return false, err
		}
		if err := tx.InsertEvent(ctx, event(string(task), oldStatus)); err != nil {
			return false, err
		}
		result.Applied++
		return true, nil

	case types.TaskQAHold:
		patch := map[string]any{}
		if note != "" {
			patch["notes"] = archive.AppendNote(note, now)
		}
		if err := tx.UpsertArchive(ctx, pubID, patch); err != nil {
			return false, err
		}
		if err := tx.InsertEvent(ctx, event(string(task), oldStatus)); err != nil {
			return false, err
		}
		result.Applied++
		return true, nil
	}

	patch := mergeFields()

	// Closing the pipeline without any recorded PID is an anomaly; it is
	// not a clean archive, so the closure is downgraded to an exception.
	if task == types.TaskFolderRemoved && pid == "" && !archive.HasPID() {
		newStatus = types.StatusException
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Row %d (%s): no PID on record; closing as %s instead of %s",
				i+1, pubID, types.StatusException, types.StatusDataArchived))
	}

	patch["last_changed_at"] = now
	if newStatus.IsClosed() {
		patch["next_reminder_at"] = nil
	}
	if err := tx.SetStatus(ctx, pubID, newStatus, patch); err != nil {
		return false, err
	}
	if err := tx.InsertEvent(ctx, event(string(task), newStatus)); err != nil {
		return false, err
	}
	result.Applied++
	return true, nil
}
