package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/rulerun/rulerun/internal/model"
)

// RuleStartMsg indicates a rule invocation has been dispatched.
type RuleStartMsg struct {
	Name string
}

// RuleCompleteMsg reports that a rule invocation has finished.
type RuleCompleteMsg struct {
	Result model.RuleResult
}

// Model contains the Bubbletea state for the run view.
type Model struct {
	title          string
	order          []string
	results        map[string]model.RuleResult
	running        map[string]bool
	spin           spinner.Model
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a run view over the requested rule names.
func NewModel(title string, ruleNames []string, nonInteractive bool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle

	m := Model{
		title:          title,
		order:          make([]string, 0, len(ruleNames)),
		results:        make(map[string]model.RuleResult, len(ruleNames)),
		running:        make(map[string]bool, len(ruleNames)),
		spin:           sp,
		nonInteractive: nonInteractive,
	}

	for _, name := range ruleNames {
		if _, exists := m.results[name]; !exists {
			m.results[name] = model.RuleResult{Rule: name, Status: model.StatusPending}
			m.order = append(m.order, name)
			m.total++
		}
	}

	return m
}

// Init starts the spinner tick loop.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// TotalRules returns the number of rules tracked by the model.
func (m Model) TotalRules() int {
	return m.total
}

// CompletedRules returns the number of finished invocations.
func (m Model) CompletedRules() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

func (m *Model) ensureRule(name string) {
	if name == "" {
		return
	}
	if _, exists := m.results[name]; !exists {
		m.results[name] = model.RuleResult{Rule: name, Status: model.StatusPending}
		m.order = append(m.order, name)
		m.total++
	}
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}
