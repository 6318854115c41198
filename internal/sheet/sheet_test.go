package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oa-archive/oat/internal/actions"
	"github.com/oa-archive/oat/internal/storage/storagetest"
	"github.com/oa-archive/oat/internal/types"
)

var sheetNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func seed(store *storagetest.MemStore, pubID string, st types.Status, nextReminder *time.Time, count int) {
	store.Seed(&types.Archive{
		PublicationID:  pubID,
		FirstSeenAt:    time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		LastSeenAt:     sheetNow,
		Status:         st,
		ReminderCount:  count,
		NextReminderAt: nextReminder,
	})
}

func TestGenerateNextTaskRows(t *testing.T) {
	store := storagetest.New()
	seed(store, "PUB1", types.StatusActive, nil, 0)
	seed(store, "PUB2", types.StatusDraftValidated, nil, 0)
	seed(store, "PUB3", types.StatusDataArchived, nil, 0)
	dir := t.TempDir()

	path, n, err := Generate(context.Background(), store, dir, sheetNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "action_sheet.tsv"), path)
	assert.Equal(t, 2, n)

	s, err := actions.ReadSheet(path)
	require.NoError(t, err)
	assert.Equal(t, Columns, s.Columns)
	require.Len(t, s.Rows, 2)

	assert.Equal(t, "PUB1", s.Rows[0]["publication_id"])
	assert.Equal(t, string(types.TaskQAPass), s.Rows[0]["task_code"])
	assert.Equal(t, "0", s.Rows[0]["done"])
	assert.Equal(t, "2025-05-01 09:00:00", s.Rows[0]["first_seen_at"])

	assert.Equal(t, "PUB2", s.Rows[1]["publication_id"])
	assert.Equal(t, string(types.TaskDepositPublished), s.Rows[1]["task_code"])
	assert.Equal(t, types.Tasks[types.TaskDepositPublished].Description, s.Rows[1]["task_text"])
}

func TestGenerateReminderRows(t *testing.T) {
	store := storagetest.New()
	due := sheetNow.Add(-time.Hour)
	future := sheetNow.Add(48 * time.Hour)
	seed(store, "DUE", types.StatusActive, &due, 2)
	seed(store, "LATER", types.StatusActive, &future, 0)
	dir := t.TempDir()

	_, n, err := Generate(context.Background(), store, dir, sheetNow)
	require.NoError(t, err)
	// DUE gets remind_sent + qa_pass, LATER only qa_pass.
	assert.Equal(t, 3, n)

	s, err := actions.ReadSheet(filepath.Join(dir, "action_sheet.tsv"))
	require.NoError(t, err)

	var remindRows []actions.Row
	for _, row := range s.Rows {
		if row["task_code"] == string(types.TaskRemindSent) {
			remindRows = append(remindRows, row)
		}
	}
	require.Len(t, remindRows, 1)
	assert.Equal(t, "DUE", remindRows[0]["publication_id"])
	assert.Equal(t, "2", remindRows[0]["reminder_count"])
	assert.Equal(t, due.Format(time.DateTime), remindRows[0]["next_reminder_at"])
}

func TestGenerateInactiveHasNoRows(t *testing.T) {
	store := storagetest.New()
	seed(store, "IDLE", types.StatusInactive, nil, 0)
	dir := t.TempDir()

	_, n, err := Generate(context.Background(), store, dir, sheetNow)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The file still exists with just the header.
	s, err := actions.ReadSheet(filepath.Join(dir, "action_sheet.tsv"))
	require.NoError(t, err)
	assert.Equal(t, Columns, s.Columns)
	assert.Empty(t, s.Rows)
}
