package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/storage/storagetest"
	"github.com/oa-archive/oat/internal/types"
)

var reportNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestBuildEmptyStore(t *testing.T) {
	store := storagetest.New()

	md, err := Build(context.Background(), store, reportNow)
	require.NoError(t, err)

	assert.Contains(t, md, "# Weekly Report — 2025-06-15")
	for _, title := range []string{
		"## New This Week",
		"## Newly Active",
		"## Stuck / Long-Idle (OPEN_ACTIVE > 30 days)",
		"## Reminders Due",
		"## Ready Queue (Pipeline View)",
		"## Integrity Warnings",
		"## Recently Closed",
		"## Summary",
	} {
		assert.Contains(t, md, title)
	}
	// Empty sections render a placeholder rather than vanishing.
	assert.Equal(t, 6, strings.Count(md, "_None_"))
	assert.Contains(t, md, "- Total tracked: 0")

	// Pipeline view lists all OPEN statuses even at zero.
	for _, s := range types.PipelineOrder {
		assert.Contains(t, md, fmt.Sprintf("- %s: 0", s))
	}
}

func TestBuildSections(t *testing.T) {
	store := storagetest.New()
	oldSeen := reportNow.Add(-60 * 24 * time.Hour)
	recentSeen := reportNow.Add(-2 * 24 * time.Hour)
	due := reportNow.Add(-time.Hour)
	missingSince := reportNow.Add(-3 * 24 * time.Hour)
	pid := "10.5281/zenodo.12345"

	store.Seed(&types.Archive{
		PublicationID: "NEW1",
		FirstSeenAt:   recentSeen,
		LastSeenAt:    reportNow,
		Status:        types.StatusInactive,
	})
	store.Seed(&types.Archive{
		PublicationID:  "STUCK1",
		FirstSeenAt:    oldSeen,
		BecameActiveAt: &oldSeen,
		LastSeenAt:     reportNow,
		Status:         types.StatusActive,
		NextReminderAt: &due,
		ReminderCount:  2,
	})
	store.Seed(&types.Archive{
		PublicationID:      "LOST1",
		FirstSeenAt:        oldSeen,
		LastSeenAt:         missingSince,
		Status:             types.StatusDraftCreated,
		MissingFolder:      true,
		MissingFolderSince: &missingSince,
	})
	store.Seed(&types.Archive{
		PublicationID: "DONE1",
		FirstSeenAt:   oldSeen,
		LastSeenAt:    reportNow,
		Status:        types.StatusDataArchived,
		FinalPID:      &pid,
	})
	store.Seed(&types.Archive{
		PublicationID: "OLD_CLOSE",
		FirstSeenAt:   oldSeen,
		LastSeenAt:    oldSeen,
		Status:        types.StatusException,
	})

	// Only DONE1 closed within the window.
	closed := types.StatusDataArchived
	open := types.StatusDBUpdated
	err := store.RunInTransaction(context.Background(), func(tx storage.Tx) error {
		return tx.InsertEvent(context.Background(), &types.Event{
			At:            reportNow.Add(-24 * time.Hour),
			PublicationID: "DONE1",
			Action:        "folder_removed",
			OldStatus:     &open,
			NewStatus:     &closed,
			Source:        types.SourceActionSheet,
		})
	})
	require.NoError(t, err)

	md, err := Build(context.Background(), store, reportNow)
	require.NoError(t, err)

	assert.Contains(t, md, "- **NEW1** — OPEN_INACTIVE")
	assert.Contains(t, md, "## Newly Active\n_None_")
	assert.Contains(t, md, "- **STUCK1** — active for 60 days")
	assert.Contains(t, md, "reminder #3")
	assert.Contains(t, md, "- OPEN_ACTIVE: 1")
	assert.Contains(t, md, "- **LOST1** — folder missing since")
	assert.Contains(t, md, "- **DONE1** — CLOSED_DATA_ARCHIVED, PID: 10.5281/zenodo.12345")
	assert.NotContains(t, md, "**OLD_CLOSE**")
	assert.Contains(t, md, "- Total open: 3")
	assert.Contains(t, md, "- Total closed: 2")
	assert.Contains(t, md, "- Total tracked: 5")
}

func TestGenerateWritesFile(t *testing.T) {
	store := storagetest.New()
	dir := t.TempDir()

	path, err := Generate(context.Background(), store, dir, reportNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "weekly_report.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Weekly Report"))
}
