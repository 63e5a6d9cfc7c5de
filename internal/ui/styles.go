// Package ui renders terminal output for the command-line tools.
package ui

import (
	"fmt"
	"strings"

	"localcoder/internal/client"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorPrimary = lipgloss.Color("#A78BFA") // Soft Purple (Lavender 400)
	ColorSuccess = lipgloss.Color("#059669") // Emerald 600
	ColorWarning = lipgloss.Color("#D97706") // Amber 600
	ColorError   = lipgloss.Color("#DC2626") // Red 600
	ColorMuted   = lipgloss.Color("#9CA3AF") // Gray 400
)

var (
	TitleStyle   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	spinnerStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
)

// Success formats a confirmation line.
func Success(msg string) string { return SuccessStyle.Render("✓ " + msg) }

// Warning formats a warning line.
func Warning(msg string) string { return WarningStyle.Render("! " + msg) }

// Error formats an error line.
func Error(msg string) string { return ErrorStyle.Render("✗ " + msg) }

// FormatModels renders the model picker entries, marking the default and
// vision-capable models.
func FormatModels(models []client.ModelInfo, defaultID string) string {
	width := 0
	for _, m := range models {
		width = max(width, lipgloss.Width(m.ID))
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Models"))
	sb.WriteString("\n")
	for _, m := range models {
		marker := "  "
		if m.ID == defaultID {
			marker = SuccessStyle.Render("* ")
		}
		id := fmt.Sprintf("%-*s", width, m.ID)
		line := marker + id + "  " + m.Name
		if m.SupportsVision {
			line += MutedStyle.Render(" (vision)")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		if m.Description != "" {
			sb.WriteString(strings.Repeat(" ", width+4))
			sb.WriteString(MutedStyle.Render(m.Description))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
