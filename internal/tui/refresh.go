// Package tui holds the interactive views used by agentctl commands.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RefreshResult is one per-agent outcome delivered to the progress view as
// the fleet sweep completes items.
type RefreshResult struct {
	AgentID string
	Success bool
	Detail  string
}

// refreshDoneMsg signals that the result channel was closed: every agent has
// an outcome and the view can exit.
type refreshDoneMsg struct{}

// RefreshModel renders live progress for a fleet sweep: a spinner, a
// completed/total counter, and the most recent per-agent outcomes.
type RefreshModel struct {
	spinner   spinner.Model
	results   <-chan RefreshResult
	total     int
	completed []RefreshResult
	succeeded int
	done      bool
	aborted   bool
}

// NewRefresh creates a progress view over a stream of per-agent outcomes.
// The producer must close the channel once all outcomes are delivered.
func NewRefresh(total int, results <-chan RefreshResult) RefreshModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return RefreshModel{
		spinner: s,
		results: results,
		total:   total,
	}
}

// Aborted reports whether the user quit before the sweep finished.
func (m RefreshModel) Aborted() bool { return m.aborted }

// Results returns the outcomes the view has consumed so far.
func (m RefreshModel) Results() []RefreshResult { return m.completed }

func (m RefreshModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForResult(m.results))
}

// waitForResult blocks on the next outcome; a closed channel ends the view.
func waitForResult(results <-chan RefreshResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			return refreshDoneMsg{}
		}
		return res
	}
}

func (m RefreshModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshResult:
		m.completed = append(m.completed, msg)
		if msg.Success {
			m.succeeded++
		}
		return m, waitForResult(m.results)

	case refreshDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// tailLines caps how many per-agent outcome lines the view shows at once.
const tailLines = 8

func (m RefreshModel) View() string {
	var b strings.Builder

	if m.done {
		fmt.Fprintf(&b, "Fleet refresh complete: %d/%d succeeded\n", m.succeeded, m.total)
	} else {
		fmt.Fprintf(&b, "%s Refreshing fleet... %d/%d\n", m.spinner.View(), len(m.completed), m.total)
	}

	start := 0
	if len(m.completed) > tailLines {
		start = len(m.completed) - tailLines
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d earlier", start)) + "\n")
	}
	for _, res := range m.completed[start:] {
		mark := okStyle.Render("✓")
		if !res.Success {
			mark = failStyle.Render("✗")
		}
		line := fmt.Sprintf("  %s %s", mark, res.AgentID)
		if res.Detail != "" {
			line += dimStyle.Render("  " + res.Detail)
		}
		b.WriteString(line + "\n")
	}

	if !m.done {
		b.WriteString(dimStyle.Render("  press q to stop watching") + "\n")
	}

	return b.String()
}
