package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/framewell/rendergate/internal/validate"
)

// renderValidationView renders the main validation view
func renderValidationView(m Model) string {
	var b strings.Builder

	// Header
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	// File queue
	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	// Overall progress
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#005FAF")).
		Render("Rendergate 🎬 - Media Quality Gate")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("Validating %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for i, file := range m.Files {
		b.WriteString(renderFileEntry(file, i, m.CurrentIndex))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, index int, currentIndex int) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusPassed:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderScoreLine(file.Report))

	case StatusFailed:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderScoreLine(file.Report))

	case StatusValidating:
		// ⚙ active file with stage details
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		// ○ queued file
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// renderScoreLine summarizes a finished report on one line
func renderScoreLine(report *validate.Report) string {
	if report == nil {
		return "no report"
	}
	line := fmt.Sprintf("Overall: %.2f | Visual: %.2f | Audio: %.2f | Sync: %.2f",
		report.OverallScore, report.VisualScore, report.AudioScore, report.SyncScore)
	if n := len(report.Issues); n > 0 {
		line += fmt.Sprintf(" | %d issue(s)", n)
	}
	return line
}

// renderFileDetails renders stage progress for the active file
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#005FAF")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	content.WriteString(fmt.Sprintf("Stage: %s\n", file.Stage))
	content.WriteString(renderStageBar(file.Stage, 40))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs", file.ElapsedTime.Seconds()))

	return box.Render(content.String())
}

// renderStageBar renders pipeline progress as a bar keyed to the stage
func renderStageBar(stage validate.Stage, width int) string {
	progress := float64(stage) / float64(validate.StageComplete)
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		currentFile := m.CurrentIndex + 1 // 1-indexed for display
		content = fmt.Sprintf("Validating file %d of %d (%d passed, %d failed)",
			currentFile, m.TotalFiles, m.PassedFiles, m.FailedFiles)
	} else {
		content = fmt.Sprintf("Overall: %d/%d validated", m.PassedFiles+m.FailedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Validation Complete")
	if m.FailedFiles+m.ErroredFiles > 0 {
		header = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			Render("⚠ Validation Complete - attention needed")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		b.WriteString(renderFinishedFile(file))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d passed, %d failed, %d errored of %d file(s)\n",
		m.PassedFiles, m.FailedFiles, m.ErroredFiles, m.TotalFiles))

	return b.String()
}

// renderFinishedFile renders a summary line for a finished file
func renderFinishedFile(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusPassed:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s PASSED\n   %s", icon, fileName, renderScoreLine(file.Report))
	case StatusFailed:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s FAILED\n   %s", icon, fileName, renderScoreLine(file.Report))
	case StatusError:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)
	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s not validated", icon, fileName)
	}
}
