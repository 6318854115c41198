package main

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/oa-archive/oat/internal/types"
)

func TestPadStatusAlignment(t *testing.T) {
	statuses := append([]types.Status{}, types.PipelineOrder...)
	statuses = append(statuses, types.ClosedStatuses...)

	for _, s := range statuses {
		// lipgloss.Width ignores ANSI escape codes, so every padded
		// status must occupy the same visible column width.
		if w := lipgloss.Width(padStatus(s)); w != 32 {
			t.Errorf("padStatus(%s) visible width = %d, want 32", s, w)
		}
	}
}
