// Package runconsole is the interactive terminal screen for working
// through a test run: start, pause, record outcomes, rerun failures.
package runconsole

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
	"testvault/internal/usecase/runflow"
)

type Options struct {
	RunID string
	// RefreshInterval is the cooperative poll for external changes; it is a
	// presentation concern, the engine itself never acts on a timer.
	RefreshInterval time.Duration
}

type runModel struct {
	ctx             context.Context
	registry        *registry.Service
	runs            *runflow.Service
	runID           string
	refreshInterval time.Duration

	run    qa.TestRun
	hasRun bool
	titles map[string]string
	cursor int
	status string
}

type runLoadedMsg struct {
	run    qa.TestRun
	titles map[string]string
	err    error
}

type actionDoneMsg struct {
	action string
	run    qa.TestRun
	err    error
}

type tickMsg struct{}

func NewModel(ctx context.Context, reg *registry.Service, runs *runflow.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &runModel{
		ctx:             ctx,
		registry:        reg,
		runs:            runs,
		runID:           strings.TrimSpace(options.RunID),
		refreshInterval: interval,
		titles:          map[string]string{},
		status:          "loading run",
	}
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(m.loadRunCmd(), m.tickCmd())
}

func (m *runModel) loadRunCmd() tea.Cmd {
	return func() tea.Msg {
		run, err := m.registry.GetTestRun(m.ctx, m.runID)
		if err != nil {
			return runLoadedMsg{err: err}
		}

		titles := make(map[string]string, len(run.Executions))
		for _, e := range run.Executions {
			tc, caseErr := m.registry.GetTestCase(m.ctx, e.TestCaseID)
			if caseErr != nil {
				titles[e.TestCaseID] = e.TestCaseID
				continue
			}
			titles[e.TestCaseID] = tc.Title
		}
		return runLoadedMsg{run: run, titles: titles}
	}
}

func (m *runModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *runModel) actionCmd(action string, fn func() (qa.TestRun, error)) tea.Cmd {
	return func() tea.Msg {
		run, err := fn()
		return actionDoneMsg{action: action, run: run, err: err}
	}
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.run = msg.run
		m.hasRun = true
		if msg.titles != nil {
			m.titles = msg.titles
		}
		m.cursor = m.runs.Navigate(m.run, m.run.CurrentExecutionIndex)
		m.status = fmt.Sprintf("run %q loaded", m.run.Name)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ports.ErrNothingToRerun) {
				m.status = "nothing to rerun"
				return m, nil
			}
			m.status = msg.action + " failed: " + msg.err.Error()
			return m, nil
		}
		m.run = msg.run
		m.cursor = m.runs.Navigate(m.run, m.run.CurrentExecutionIndex)
		m.status = msg.action + " ok"
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadRunCmd(), m.tickCmd())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *runModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.hasRun {
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = m.runs.Navigate(m.run, m.cursor-1)
	case "down", "j":
		m.cursor = m.runs.Navigate(m.run, m.cursor+1)
	case "s":
		return m, m.actionCmd("start", func() (qa.TestRun, error) {
			return m.runs.Start(m.ctx, m.runID)
		})
	case "p":
		return m, m.actionCmd("pause", func() (qa.TestRun, error) {
			return m.runs.Pause(m.ctx, m.runID)
		})
	case "x":
		return m, m.actionCmd("cancel", func() (qa.TestRun, error) {
			return m.runs.Stop(m.ctx, m.runID)
		})
	case "r":
		return m, m.actionCmd("rerun failed", func() (qa.TestRun, error) {
			return m.runs.RerunFailed(m.ctx, m.runID)
		})
	case "P":
		return m, m.recordCmd(qa.ExecPass)
	case "F":
		return m, m.recordCmd(qa.ExecFail)
	case "S":
		return m, m.recordCmd(qa.ExecSkipped)
	case "B":
		return m, m.recordCmd(qa.ExecBlocked)
	}

	return m, nil
}

func (m *runModel) recordCmd(code qa.ExecutionCode) tea.Cmd {
	return m.actionCmd("record "+string(code), func() (qa.TestRun, error) {
		return m.runs.RecordExecution(m.ctx, runflow.RecordInput{
			RunID:  m.runID,
			Status: code,
		})
	})
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m *runModel) View() string {
	var b strings.Builder

	if !m.hasRun {
		b.WriteString(m.status + "\n")
		b.WriteString(dimStyle.Render("q quit") + "\n")
		return b.String()
	}

	done, total := m.runs.Progress(m.run)
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  [%s]", m.run.Name, m.run.Status)))
	b.WriteString(fmt.Sprintf("  %d/%d recorded\n\n", done, total))

	for i, e := range m.run.Executions {
		marker := "  "
		if i == m.run.CurrentExecutionIndex && !qa.IsTerminalRunStatus(m.run.Status) {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-40s %s", marker, truncate(m.titles[e.TestCaseID], 40), e.Status.Label())
		switch {
		case i == m.cursor:
			line = currentStyle.Render(line)
		case e.Status.Code == qa.ExecPass:
			line = passStyle.Render(line)
		case e.Status.Code == qa.ExecFail:
			line = failStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.status + "\n")
	b.WriteString(dimStyle.Render("s start  p pause  x cancel  r rerun failed  P/F/S/B record  j/k move  q quit") + "\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
