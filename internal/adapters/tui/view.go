package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/envup/internal/ui/style"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(style.Teal)
	pendingStyle = lipgloss.NewStyle().Foreground(style.Slate)
	runningStyle = lipgloss.NewStyle().Foreground(style.Yellow)
	doneStyle    = lipgloss.NewStyle().Foreground(style.Green)
	failedStyle  = lipgloss.NewStyle().Foreground(style.Red)
	detailStyle  = lipgloss.NewStyle().Foreground(style.Slate).Faint(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("envup"))
	b.WriteString("\n\n")

	for _, step := range m.steps {
		b.WriteString(renderStep(step))
		b.WriteString("\n")

		if step.status == statusRunning && step.lastLine != "" {
			b.WriteString("    ")
			b.WriteString(detailStyle.Render(step.lastLine))
			b.WriteString("\n")
		}
		if step.status == statusFailed && step.err != nil {
			b.WriteString("    ")
			b.WriteString(failedStyle.Render(step.err.Error()))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderStep(step *stepInfo) string {
	switch step.status {
	case statusRunning:
		elapsed := time.Since(step.startTime).Round(100 * time.Millisecond)
		return fmt.Sprintf("  %s %s %s",
			runningStyle.Render(style.Dot),
			step.name,
			detailStyle.Render(elapsed.String()))
	case statusDone:
		duration := step.endTime.Sub(step.startTime).Round(time.Millisecond)
		return fmt.Sprintf("  %s %s %s",
			doneStyle.Render(style.Check),
			step.name,
			detailStyle.Render(duration.String()))
	case statusFailed:
		duration := step.endTime.Sub(step.startTime).Round(time.Millisecond)
		return fmt.Sprintf("  %s %s %s",
			failedStyle.Render(style.Cross),
			step.name,
			detailStyle.Render(duration.String()))
	default:
		return fmt.Sprintf("  %s %s",
			pendingStyle.Render(style.Circle),
			pendingStyle.Render(step.name))
	}
}
