package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rulerun/rulerun/internal/model"
)

// View renders the current state of the run.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("rulerun • %s", m.heading())))

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Rules"))
		sections = append(sections, m.renderRules())
	}

	sections = append(sections, summaryStyle.Render(m.renderSummary()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderRules() string {
	var lines []string
	for _, name := range m.order {
		res := m.results[name]
		icon := m.statusIcon(name, res.Status)
		line := fmt.Sprintf(" %s %s", icon, name)
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s — %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	succeeded := 0
	failed := 0
	for _, res := range m.results {
		switch res.Status {
		case model.StatusSucceeded:
			succeeded++
		case model.StatusFailed, model.StatusCanceled:
			failed++
		}
	}

	switch {
	case m.cancelled:
		return canceledStyle.Render("run canceled")
	case failed > 0:
		return failureStyle.Render(fmt.Sprintf("%d/%d rules succeeded, %d failed", succeeded, m.total, failed))
	case m.finished:
		return successStyle.Render(fmt.Sprintf("%d/%d rules succeeded", succeeded, m.total))
	default:
		return pendingStyle.Render(fmt.Sprintf("%d/%d rules complete", m.completed, m.total))
	}
}

func (m Model) heading() string {
	if strings.TrimSpace(m.title) != "" {
		return m.title
	}
	return "run"
}

func (m Model) statusIcon(name, status string) string {
	if m.running[name] {
		return m.spin.View()
	}
	switch status {
	case model.StatusSucceeded:
		return successStyle.Render("✓")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusCanceled:
		return canceledStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}
