package runflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
)

// fakeKV is a map-backed KVStore for tests.
type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
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

// testClock advances by a fixed step on every read so durations come out
// non-zero and deterministic.
type testClock struct {
	at   time.Time
	step time.Duration
}

func (c *testClock) Now() time.Time {
	now := c.at
	c.at = c.at.Add(c.step)
	return now
}

func newEngine(t *testing.T) (*Service, *registry.Service) {
	t.Helper()

	clock := &testClock{
		at:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		step: 10 * time.Second,
	}
	identity := ports.IdentityFunc(func() string { return "tester" })

	counter := 0
	reg := registry.NewService(newFakeKV(), clock, identity).WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	})
	return NewService(reg, clock, identity), reg
}

func buildThreeCaseRun(t *testing.T, engine *Service, reg *registry.Service) qa.TestRun {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		tc, err := reg.SaveTestCase(ctx, qa.TestCase{Title: fmt.Sprintf("Case %d", i)})
		if err != nil {
			t.Fatalf("SaveTestCase() error = %v", err)
		}
		ids = append(ids, tc.ID)
	}

	run, err := engine.BuildRun(ctx, "Sprint run", "three cases", nil, ids)
	if err != nil {
		t.Fatalf("BuildRun() error = %v", err)
	}
	if len(run.Executions) != 3 || run.Status != qa.RunNotStarted {
		t.Fatalf("BuildRun() = %d executions, status %q", len(run.Executions), run.Status)
	}
	return run
}

func record(t *testing.T, engine *Service, runID string, code qa.ExecutionCode) qa.TestRun {
	t.Helper()
	run, err := engine.RecordExecution(context.Background(), RecordInput{RunID: runID, Status: code})
	if err != nil {
		t.Fatalf("RecordExecution(%s) error = %v", code, err)
	}
	return run
}

func TestRunLifecyclePassFailPass(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	started, err := engine.Start(ctx, run.ID)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Status != qa.RunInProgress {
		t.Fatalf("Start() status = %q, want In Progress", started.Status)
	}
	if started.StartedAt == "" {
		t.Fatalf("Start() expected StartedAt to be set")
	}
	if started.Executions[0].StartedAt == "" {
		t.Fatalf("Start() expected the first execution to be started")
	}

	run = record(t, engine, run.ID, qa.ExecPass)
	if run.CurrentExecutionIndex != 1 {
		t.Fatalf("RecordExecution() index = %d, want 1", run.CurrentExecutionIndex)
	}
	if run.Executions[1].StartedAt == "" {
		t.Fatalf("RecordExecution() expected the next execution to be started")
	}

	run = record(t, engine, run.ID, qa.ExecFail)
	if run.CurrentExecutionIndex != 2 {
		t.Fatalf("RecordExecution() index = %d, want 2", run.CurrentExecutionIndex)
	}

	run = record(t, engine, run.ID, qa.ExecPass)
	if run.Status != qa.RunCompleted {
		t.Fatalf("RecordExecution(last) status = %q, want Completed", run.Status)
	}
	if run.CompletedAt == "" {
		t.Fatalf("RecordExecution(last) expected CompletedAt")
	}
	// The pointer stays on the last recorded execution.
	if run.CurrentExecutionIndex != 2 {
		t.Fatalf("RecordExecution(last) index = %d, want 2", run.CurrentExecutionIndex)
	}

	for i, e := range run.Executions {
		if e.ExecutedAt == "" || e.ExecutedBy != "tester" {
			t.Fatalf("execution %d not recorded: %+v", i, e)
		}
		if e.DurationSeconds <= 0 {
			t.Fatalf("execution %d duration = %d, want > 0", i, e.DurationSeconds)
		}
	}

	// Every outcome was mirrored into the all-time collection.
	execs, err := reg.ListExecutions(ctx)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(execs) != 3 {
		t.Fatalf("ListExecutions() = %d, want 3", len(execs))
	}
}

func TestRecordOutsideInProgressIsRejected(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	_, err := engine.RecordExecution(ctx, RecordInput{RunID: run.ID, Status: qa.ExecPass})
	if !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("RecordExecution(not started) error = %v, want ErrInvalidTransition", err)
	}

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := engine.Pause(ctx, run.ID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	_, err = engine.RecordExecution(ctx, RecordInput{RunID: run.ID, Status: qa.ExecPass})
	if !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("RecordExecution(paused) error = %v, want ErrInvalidTransition", err)
	}

	// Nothing was written while rejected.
	got, err := reg.GetTestRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetTestRun() error = %v", err)
	}
	if got.Executions[0].ExecutedAt != "" {
		t.Fatalf("rejected record still wrote an outcome: %+v", got.Executions[0])
	}
}

func TestRecordRejectsNonOutcomeStatus(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	_, err := engine.RecordExecution(ctx, RecordInput{RunID: run.ID, Status: qa.ExecInProgress})
	if !errors.Is(err, ports.ErrValidation) {
		t.Fatalf("RecordExecution(In Progress) error = %v, want ErrValidation", err)
	}
}

func TestPauseResumeKeepsPosition(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	record(t, engine, run.ID, qa.ExecPass)

	paused, err := engine.Pause(ctx, run.ID)
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if paused.Status != qa.RunPaused || paused.PausedAt == "" {
		t.Fatalf("Pause() = %q, pausedAt %q", paused.Status, paused.PausedAt)
	}

	resumed, err := engine.Start(ctx, run.ID)
	if err != nil {
		t.Fatalf("Start(resume) error = %v", err)
	}
	if resumed.CurrentExecutionIndex != 1 {
		t.Fatalf("Start(resume) index = %d, want 1", resumed.CurrentExecutionIndex)
	}
	if resumed.StartedAt != paused.StartedAt {
		t.Fatalf("Start(resume) changed StartedAt: %q -> %q", paused.StartedAt, resumed.StartedAt)
	}
}

func TestStopIsTerminal(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	stopped, err := engine.Stop(ctx, run.ID)
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if stopped.Status != qa.RunCancelled {
		t.Fatalf("Stop() status = %q, want Cancelled", stopped.Status)
	}

	if _, err := engine.Start(ctx, run.ID); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("Start(cancelled) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := engine.Stop(ctx, run.ID); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("Stop(cancelled) error = %v, want ErrInvalidTransition", err)
	}
}

func TestCompletedRunRejectsFurtherTransitions(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	record(t, engine, run.ID, qa.ExecPass)
	record(t, engine, run.ID, qa.ExecPass)
	record(t, engine, run.ID, qa.ExecPass)

	if _, err := engine.Start(ctx, run.ID); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("Start(completed) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := engine.Pause(ctx, run.ID); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("Pause(completed) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := engine.Stop(ctx, run.ID); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Fatalf("Stop(completed) error = %v, want ErrInvalidTransition", err)
	}
}

func TestRerunFailedResetsOnlyFailures(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	record(t, engine, run.ID, qa.ExecPass)
	record(t, engine, run.ID, qa.ExecFail)
	run = record(t, engine, run.ID, qa.ExecFail)
	if run.Status != qa.RunCompleted {
		t.Fatalf("setup: status = %q, want Completed", run.Status)
	}

	rerun, err := engine.RerunFailed(ctx, run.ID)
	if err != nil {
		t.Fatalf("RerunFailed() error = %v", err)
	}
	if rerun.Status != qa.RunNotStarted || rerun.CurrentExecutionIndex != 0 {
		t.Fatalf("RerunFailed() = %q index %d, want Not Started / 0", rerun.Status, rerun.CurrentExecutionIndex)
	}
	if rerun.CompletedAt != "" {
		t.Fatalf("RerunFailed() kept CompletedAt = %q", rerun.CompletedAt)
	}
	// The pass is untouched; both failures are re-armed.
	if rerun.Executions[0].Status.Code != qa.ExecPass {
		t.Fatalf("RerunFailed() reset a passing execution: %q", rerun.Executions[0].Status.Code)
	}
	for i := 1; i <= 2; i++ {
		e := rerun.Executions[i]
		if e.Status.Code != qa.ExecNotExecuted {
			t.Fatalf("RerunFailed() execution %d status = %q, want Not Executed", i, e.Status.Code)
		}
		if e.ExecutedAt != "" || e.Comments != "" || e.ActualResult != "" || e.DurationSeconds != 0 {
			t.Fatalf("RerunFailed() execution %d not cleared: %+v", i, e)
		}
	}

	// Executions keep their identity across the rerun.
	if rerun.Executions[1].ID != run.Executions[1].ID {
		t.Fatalf("RerunFailed() changed an execution id")
	}
}

func TestRerunFailedWithoutFailures(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	record(t, engine, run.ID, qa.ExecPass)
	record(t, engine, run.ID, qa.ExecSkipped)
	record(t, engine, run.ID, qa.ExecBlocked)

	_, err := engine.RerunFailed(ctx, run.ID)
	if !errors.Is(err, ports.ErrNothingToRerun) {
		t.Fatalf("RerunFailed() error = %v, want ErrNothingToRerun", err)
	}
}

func TestNavigateClamps(t *testing.T) {
	engine, _ := newEngine(t)
	run := qa.TestRun{Executions: []qa.TestExecution{{}, {}, {}}}

	if got := engine.Navigate(run, -5); got != 0 {
		t.Fatalf("Navigate(-5) = %d, want 0", got)
	}
	if got := engine.Navigate(run, 1); got != 1 {
		t.Fatalf("Navigate(1) = %d, want 1", got)
	}
	if got := engine.Navigate(run, 99); got != 2 {
		t.Fatalf("Navigate(99) = %d, want 2", got)
	}
	if got := engine.Navigate(qa.TestRun{}, 4); got != 0 {
		t.Fatalf("Navigate(empty, 4) = %d, want 0", got)
	}
}

func TestProgress(t *testing.T) {
	engine, reg := newEngine(t)
	ctx := context.Background()
	run := buildThreeCaseRun(t, engine, reg)

	done, total := engine.Progress(run)
	if done != 0 || total != 3 {
		t.Fatalf("Progress() = %d/%d, want 0/3", done, total)
	}

	if _, err := engine.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	run = record(t, engine, run.ID, qa.ExecPass)

	done, total = engine.Progress(run)
	if done != 1 || total != 3 {
		t.Fatalf("Progress() = %d/%d, want 1/3", done, total)
	}
}

func TestBuildRunValidatesTestCases(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.BuildRun(ctx, "", "", nil, nil)
	if !errors.Is(err, ports.ErrValidation) {
		t.Fatalf("BuildRun(no name) error = %v, want ErrValidation", err)
	}

	_, err = engine.BuildRun(ctx, "Broken", "", nil, []string{"no-such-case"})
	if !errors.Is(err, ports.ErrValidation) {
		t.Fatalf("BuildRun(unknown case) error = %v, want ErrValidation", err)
	}
}

func TestDurationSecondsRoundsAndClamps(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	if got := durationSeconds("2026-03-01T12:00:00Z", at); got != 30 {
		t.Fatalf("durationSeconds() = %d, want 30", got)
	}
	// Clock skew never yields a negative duration.
	if got := durationSeconds("2026-03-01T12:01:00Z", at); got != 0 {
		t.Fatalf("durationSeconds(skew) = %d, want 0", got)
	}
	if got := durationSeconds("", at); got != 0 {
		t.Fatalf("durationSeconds(no start) = %d, want 0", got)
	}
	if got := durationSeconds("garbage", at); got != 0 {
		t.Fatalf("durationSeconds(garbage) = %d, want 0", got)
	}
}
