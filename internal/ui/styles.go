// Package ui provides terminal styling for oat CLI output.
// Uses a Nord-ish palette with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/oa-archive/oat/internal/types"
)

var (
	// Semantic status colors (adaptive light/dark)
	ColorOK = lipgloss.AdaptiveColor{
		Light: "#4c8a3f",
		Dark:  "#a3be8c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#b8860b",
		Dark:  "#ebcb8b",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#bf4040",
		Dark:  "#bf616a",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#7b8794",
		Dark:  "#616e7c",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#2e6da4",
		Dark:  "#81a1c1",
	}
)

var (
	OKStyle     = lipgloss.NewStyle().Foreground(ColorOK)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// RenderOK renders text with ok (green) styling.
func RenderOK(s string) string {
	return OKStyle.Render(s)
}

// RenderWarn renders text with warning (yellow) styling.
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling.
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling.
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderHeader renders a section header.
func RenderHeader(s string) string {
	return HeaderStyle.Render(s)
}

// RenderStatus colors a lifecycle status: closed clean green, closed
// exception red, active pipeline blue, inactive gray.
func RenderStatus(s types.Status) string {
	switch {
	case s == types.StatusException:
		return FailStyle.Render(string(s))
	case s.IsClosed():
		return OKStyle.Render(string(s))
	case s == types.StatusInactive:
		return MutedStyle.Render(string(s))
	default:
		return AccentStyle.Render(string(s))
	}
}
