// Package report builds the weekly status report as markdown.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

const (
	weekWindow     = 7 * 24 * time.Hour
	stuckThreshold = 30 * 24 * time.Hour
)

// Generate writes weekly_report.md under outputDir and returns its path.
func Generate(ctx context.Context, store storage.Store, outputDir string, now time.Time) (string, error) {
	md, err := Build(ctx, store, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, "weekly_report.md")
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Build assembles the report markdown without touching the filesystem.
func Build(ctx context.Context, store storage.Store, now time.Time) (string, error) {
	weekAgo := now.Add(-weekWindow)

	all, err := store.ListArchives(ctx, storage.ArchiveFilter{})
	if err != nil {
		return "", err
	}
	remindersDue, err := store.RemindersDue(ctx, now)
	if err != nil {
		return "", err
	}
	recentEvents, err := store.EventsSince(ctx, weekAgo)
	if err != nil {
		return "", err
	}

	var open, closed []*types.Archive
	for _, a := range all {
		if a.Status.IsOpen() {
			open = append(open, a)
		} else {
			closed = append(closed, a)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Report — %s\n\n", now.Format(time.DateOnly))

	section(&b, "New This Week", filterMap(all, func(a *types.Archive) (string, bool) {
		if !a.FirstSeenAt.Before(weekAgo) {
			return fmt.Sprintf("- **%s** — %s (seen %s)", a.PublicationID, a.Status, a.FirstSeenAt.Format(time.DateTime)), true
		}
		return "", false
	}))

	section(&b, "Newly Active", filterMap(all, func(a *types.Archive) (string, bool) {
		if a.BecameActiveAt != nil && !a.BecameActiveAt.Before(weekAgo) {
			return fmt.Sprintf("- **%s** — active since %s", a.PublicationID, a.BecameActiveAt.Format(time.DateTime)), true
		}
		return "", false
	}))

	section(&b, "Stuck / Long-Idle (OPEN_ACTIVE > 30 days)", filterMap(open, func(a *types.Archive) (string, bool) {
		if a.Status == types.StatusActive && a.BecameActiveAt != nil && now.Sub(*a.BecameActiveAt) > stuckThreshold {
			days := int(now.Sub(*a.BecameActiveAt).Hours() / 24)
			return fmt.Sprintf("- **%s** — active for %d days", a.PublicationID, days), true
		}
		return "", false
	}))

	section(&b, "Reminders Due", filterMap(remindersDue, func(a *types.Archive) (string, bool) {
		return fmt.Sprintf("- **%s** — reminder #%d (due %s)",
			a.PublicationID, a.ReminderCount+1, a.NextReminderAt.Format(time.DateTime)), true
	}))

	// Pipeline view always lists every OPEN status, zero counts included.
	counts := make(map[types.Status]int)
	for _, a := range open {
		counts[a.Status]++
	}
	b.WriteString("## Ready Queue (Pipeline View)\n")
	for _, s := range types.PipelineOrder {
		fmt.Fprintf(&b, "- %s: %d\n", s, counts[s])
	}
	b.WriteString("\n")

	section(&b, "Integrity Warnings", filterMap(open, func(a *types.Archive) (string, bool) {
		if a.MissingFolder {
			since := "unknown"
			if a.MissingFolderSince != nil {
				since = a.MissingFolderSince.Format(time.DateTime)
			}
			return fmt.Sprintf("- **%s** — folder missing since %s, status: %s", a.PublicationID, since, a.Status), true
		}
		return "", false
	}))

	recentlyClosed := make(map[string]bool)
	for _, ev := range recentEvents {
		if ev.NewStatus != nil && ev.NewStatus.IsClosed() {
			recentlyClosed[ev.PublicationID] = true
		}
	}
	section(&b, "Recently Closed", filterMap(closed, func(a *types.Archive) (string, bool) {
		if !recentlyClosed[a.PublicationID] {
			return "", false
		}
		line := fmt.Sprintf("- **%s** — %s", a.PublicationID, a.Status)
		if a.HasPID() {
			line += fmt.Sprintf(", PID: %s", *a.FinalPID)
		}
		return line, true
	}))

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total open: %d\n", len(open))
	fmt.Fprintf(&b, "- Total closed: %d\n", len(closed))
	fmt.Fprintf(&b, "- Total tracked: %d\n", len(all))

	return b.String(), nil
}

func section(b *strings.Builder, title string, lines []string) {
	fmt.Fprintf(b, "## %s\n", title)
	if len(lines) == 0 {
		b.WriteString("_None_\n")
	} else {
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func filterMap[T any](items []T, fn func(T) (string, bool)) []string {
	var out []string
	for _, item := range items {
		if line, ok := fn(item); ok {
			out = append(out, line)
		}
	}
	return out
}
