package runconsole

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
	"testvault/internal/usecase/runflow"
)

// fakeKV is a map-backed KVStore for tests.
type fakeKV struct {
	data map[string]string
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func newConsoleModel(t *testing.T) (*runModel, *runflow.Service, qa.TestRun) {
	t.Helper()
	ctx := context.Background()

	clock := ports.ClockFunc(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	identity := ports.IdentityFunc(func() string { return "tester" })

	counter := 0
	reg := registry.NewService(&fakeKV{data: map[string]string{}}, clock, identity).WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	})
	runs := runflow.NewService(reg, clock, identity)

	ids := make([]string, 0, 2)
	for _, title := range []string{"First case", "Second case"} {
		tc, err := reg.SaveTestCase(ctx, qa.TestCase{Title: title})
		if err != nil {
			t.Fatalf("SaveTestCase() error = %v", err)
		}
		ids = append(ids, tc.ID)
	}
	run, err := runs.BuildRun(ctx, "Console run", "", nil, ids)
	if err != nil {
		t.Fatalf("BuildRun() error = %v", err)
	}

	model := NewModel(ctx, reg, runs, Options{RunID: run.ID}).(*runModel)
	return model, runs, run
}

func loadModel(t *testing.T, m *runModel) {
	t.Helper()
	msg := m.loadRunCmd()()
	loaded, ok := msg.(runLoadedMsg)
	if !ok {
		t.Fatalf("loadRunCmd() returned %T", msg)
	}
	if loaded.err != nil {
		t.Fatalf("loadRunCmd() error = %v", loaded.err)
	}
	if _, cmd := m.Update(loaded); cmd != nil {
		t.Fatalf("Update(runLoadedMsg) returned a command")
	}
}

func TestModelLoadsRunAndTitles(t *testing.T) {
	m, _, run := newConsoleModel(t)
	loadModel(t, m)

	if !m.hasRun || m.run.ID != run.ID {
		t.Fatalf("model did not load the run: %+v", m.run)
	}
	view := m.View()
	if !strings.Contains(view, "First case") || !strings.Contains(view, "Second case") {
		t.Fatalf("View() missing case titles:\n%s", view)
	}
	if !strings.Contains(view, "0/2 recorded") {
		t.Fatalf("View() missing progress:\n%s", view)
	}
}

func TestModelLoadFailure(t *testing.T) {
	m, _, _ := newConsoleModel(t)
	m.runID = "no-such-run"

	msg := m.loadRunCmd()()
	loaded := msg.(runLoadedMsg)
	if loaded.err == nil {
		t.Fatalf("loadRunCmd() expected an error for a missing run")
	}
	m.Update(loaded)
	if m.hasRun {
		t.Fatalf("model claims a run after a failed load")
	}
	if !strings.Contains(m.View(), "load failed") {
		t.Fatalf("View() missing failure status:\n%s", m.View())
	}
}

func TestModelNavigationClamps(t *testing.T) {
	m, _, _ := newConsoleModel(t)
	loadModel(t, m)

	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.cursor != 1 {
		t.Fatalf("cursor after j = %d, want 1", m.cursor)
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.cursor != 1 {
		t.Fatalf("cursor clamped = %d, want 1", m.cursor)
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if m.cursor != 0 {
		t.Fatalf("cursor after k k = %d, want 0", m.cursor)
	}
}

func TestModelActionsDriveTheEngine(t *testing.T) {
	m, _, _ := newConsoleModel(t)
	loadModel(t, m)

	// "s" produces a start command whose message carries the updated run.
	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if cmd == nil {
		t.Fatalf("handleKey(s) returned no command")
	}
	done := cmd().(actionDoneMsg)
	if done.err != nil {
		t.Fatalf("start action error = %v", done.err)
	}
	m.Update(done)
	if m.run.Status != qa.RunInProgress {
		t.Fatalf("run status = %q, want In Progress", m.run.Status)
	}

	_, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'P'}})
	done = cmd().(actionDoneMsg)
	if done.err != nil {
		t.Fatalf("record action error = %v", done.err)
	}
	m.Update(done)
	if m.run.Executions[0].Status.Code != qa.ExecPass {
		t.Fatalf("first execution = %q, want Pass", m.run.Executions[0].Status.Code)
	}
	if m.cursor != 1 {
		t.Fatalf("cursor after record = %d, want 1", m.cursor)
	}
}

func TestModelRerunWithoutFailures(t *testing.T) {
	m, _, _ := newConsoleModel(t)
	loadModel(t, m)

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	done := cmd().(actionDoneMsg)
	m.Update(done)
	if m.status != "nothing to rerun" {
		t.Fatalf("status = %q, want nothing to rerun", m.status)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m, _, _ := newConsoleModel(t)

	// Quit works even before the run loads.
	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("handleKey(q) returned no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("handleKey(q) = %v, want quit", msg)
	}
}
