package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/rulerun/rulerun/internal/model"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case RuleStartMsg:
		m.ensureRule(msg.Name)
		m.running[msg.Name] = true
		return m, nil
	case RuleCompleteMsg:
		name := msg.Result.Rule
		if name == "" {
			return m, nil
		}
		m.ensureRule(name)
		delete(m.running, name)
		existing := m.results[name]
		previouslyCompleted := existing.Status == model.StatusSucceeded ||
			existing.Status == model.StatusFailed ||
			existing.Status == model.StatusCanceled
		m.results[name] = msg.Result
		if !previouslyCompleted {
			m.completed++
			m.markFinishedIfComplete()
		}
		if msg.Result.Status == model.StatusFailed {
			m.finished = true
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, nil
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
