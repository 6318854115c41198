package actions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.tsv")
	columns := []string{"publication_id", "done", "note"}
	rows := []Row{
		{"publication_id": "PUB1", "done": "0", "note": "has spaces and, commas"},
		{"publication_id": "PUB2", "done": "1", "note": ""},
	}
	require.NoError(t, WriteSheet(path, columns, rows))

	s, err := ReadSheet(path)
	require.NoError(t, err)
	assert.Equal(t, columns, s.Columns)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "has spaces and, commas", s.Rows[0]["note"])
	assert.Equal(t, "", s.Rows[1]["note"])
}

// Operators add columns the tool does not know about; rewrites keep them.
func TestSheetPreservesUnknownColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.tsv")
	raw := "publication_id\tdone\tassignee\nPUB1\t0\talice\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	s, err := ReadSheet(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Rows[0]["assignee"])

	require.NoError(t, WriteSheet(path, s.Columns, s.Rows))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestReadSheetShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.tsv")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\tc\n1\t2\n"), 0o644))

	s, err := ReadSheet(path)
	require.NoError(t, err)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "2", s.Rows[0]["b"])
	assert.Equal(t, "", s.Rows[0]["c"])
}

func TestAppendHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "action_history.tsv")
	columns := []string{"publication_id", "done"}

	require.NoError(t, appendHistory(path, columns, []Row{{"publication_id": "PUB1", "done": "1"}}, "2025-06-15 12:00:00"))
	require.NoError(t, appendHistory(path, columns, []Row{{"publication_id": "PUB2", "done": "2"}}, "2025-06-16 09:30:00"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3, "header written once across appends")
	assert.Equal(t, "publication_id\tdone\tapplied_at", lines[0])
	assert.Equal(t, "PUB1\t1\t2025-06-15 12:00:00", lines[1])
	assert.Equal(t, "PUB2\t2\t2025-06-16 09:30:00", lines[2])
}
