// Package sheet generates the operator action sheet: one tab-delimited
// row per pending reminder and per recommended next pipeline task. The
// columns mirror exactly what the action applier consumes.
package sheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oa-archive/oat/internal/actions"
	"github.com/oa-archive/oat/internal/status"
	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// Columns is the fixed sheet layout. done defaults to "0"; operators set
// it to "1" (performed) or "2" (fully close) and fill pid/url/note.
var Columns = []string{
	"publication_id",
	"current_status",
	"task_code",
	"task_text",
	"first_seen_at",
	"next_reminder_at",
	"reminder_count",
	"done",
	"pid",
	"url",
	"note",
}

// Generate writes action_sheet.tsv under outputDir and returns its path
// along with the number of rows written.
func Generate(ctx context.Context, store storage.Store, outputDir string, now time.Time) (string, int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, "action_sheet.tsv")

	open, err := store.ListArchives(ctx, storage.ArchiveFilter{Open: true})
	if err != nil {
		return "", 0, err
	}
	due, err := store.RemindersDue(ctx, now)
	if err != nil {
		return "", 0, err
	}
	dueSet := make(map[string]bool, len(due))
	for _, a := range due {
		dueSet[a.PublicationID] = true
	}

	var rows []actions.Row
	for _, a := range open {
		if dueSet[a.PublicationID] {
			rows = append(rows, makeRow(a, types.TaskRemindSent))
		}
		if next := status.NextTask(a.Status); next != "" {
			rows = append(rows, makeRow(a, next))
		}
	}

	if err := actions.WriteSheet(path, Columns, rows); err != nil {
		return "", 0, err
	}
	return path, len(rows), nil
}

func makeRow(a *types.Archive, task types.TaskCode) actions.Row {
	nextReminder := ""
	if a.NextReminderAt != nil {
		nextReminder = a.NextReminderAt.Format(time.DateTime)
	}
	return actions.Row{
		"publication_id":   a.PublicationID,
		"current_status":   string(a.Status),
		"task_code":        string(task),
		"task_text":        types.Tasks[task].Description,
		"first_seen_at":    a.FirstSeenAt.Format(time.DateTime),
		"next_reminder_at": nextReminder,
		"reminder_count":   fmt.Sprintf("%d", a.ReminderCount),
		"done":             "0",
		"pid":              "",
		"url":              "",
		"note":             "",
	}
}
