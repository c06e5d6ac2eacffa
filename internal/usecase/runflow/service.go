// Package runflow drives a test run through its ordered executions:
// start/pause/stop, recording outcomes, and re-arming failed executions.
// All transitions are explicit caller actions; nothing fires on a timer.
package runflow

import (
	"context"
	"errors"
	"time"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
)

type Service struct {
	registry *registry.Service
	clock    ports.Clock
	identity ports.Identity
}

func NewService(reg *registry.Service, clock ports.Clock, identity ports.Identity) *Service {
	return &Service{
		registry: reg,
		clock:    clock,
		identity: identity,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339)
}

// Start moves a run from NotStarted or Paused to InProgress. StartedAt is
// recorded only the first time; resuming keeps the original value and the
// current execution index.
func (s *Service) Start(ctx context.Context, runID string) (qa.TestRun, error) {
	run, err := s.registry.GetTestRun(ctx, runID)
	if err != nil {
		return qa.TestRun{}, err
	}
	if !qa.CanStartRun(run.Status) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrInvalidTransition, "start from %q", run.Status)
	}

	now := s.timestamp()
	run.Status = qa.RunInProgress
	if run.StartedAt == "" {
		run.StartedAt = now
	}
	if run.CurrentExecutionIndex < len(run.Executions) {
		cur := &run.Executions[run.CurrentExecutionIndex]
		if cur.StartedAt == "" {
			cur.StartedAt = now
		}
	}

	return s.registry.SaveTestRun(ctx, run)
}

// Pause suspends an in-progress run, preserving the execution index.
func (s *Service) Pause(ctx context.Context, runID string) (qa.TestRun, error) {
	run, err := s.registry.GetTestRun(ctx, runID)
	if err != nil {
		return qa.TestRun{}, err
	}
	if !qa.CanPauseRun(run.Status) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrInvalidTransition, "pause from %q", run.Status)
	}

	run.Status = qa.RunPaused
	run.PausedAt = s.timestamp()

	return s.registry.SaveTestRun(ctx, run)
}

// Stop cancels a run from any non-terminal state. Cancelled is terminal;
// no further transitions are accepted.
func (s *Service) Stop(ctx context.Context, runID string) (qa.TestRun, error) {
	run, err := s.registry.GetTestRun(ctx, runID)
	if err != nil {
		return qa.TestRun{}, err
	}
	if !qa.CanCancelRun(run.Status) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrInvalidTransition, "cancel from %q", run.Status)
	}

	run.Status = qa.RunCancelled

	return s.registry.SaveTestRun(ctx, run)
}

// RecordInput carries the outcome written into the current execution.
type RecordInput struct {
	RunID        string
	Status       qa.ExecutionCode
	CustomStatus string
	ActualResult string
	Comments     string
	StepResults  []qa.TestStepResult
	Attachments  []string
}

// RecordExecution writes the outcome into the execution at the current
// index. Recording the last execution completes the run; otherwise the
// index advances by one. The run update and the outcome are one
// synchronous write. Recording outside an in-progress run is rejected
// before anything is written.
func (s *Service) RecordExecution(ctx context.Context, input RecordInput) (qa.TestRun, error) {
	run, err := s.registry.GetTestRun(ctx, input.RunID)
	if err != nil {
		return qa.TestRun{}, err
	}
	if !qa.CanRecordExecution(run.Status) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrInvalidTransition, "record execution from %q", run.Status)
	}
	if !qa.IsRecordableOutcome(input.Status) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrValidation, "outcome %q is not recordable", input.Status)
	}
	idx := run.CurrentExecutionIndex
	if idx >= len(run.Executions) {
		return qa.TestRun{}, errs.Wrapf(ports.ErrValidation, "execution index %d out of range", idx)
	}

	now := s.now()
	nowStamp := now.Format(time.RFC3339)

	exec := &run.Executions[idx]
	exec.Status = qa.NewExecutionStatus(input.Status, input.CustomStatus)
	exec.ActualResult = input.ActualResult
	exec.Comments = input.Comments
	exec.StepResults = input.StepResults
	if len(input.Attachments) > 0 {
		exec.Attachments = append(exec.Attachments, input.Attachments...)
	}
	exec.ExecutedAt = nowStamp
	exec.ExecutedBy = s.identity.CurrentUser()
	exec.RunID = run.ID
	exec.DurationSeconds = durationSeconds(exec.StartedAt, now)

	if idx == len(run.Executions)-1 {
		run.Status = qa.RunCompleted
		run.CompletedAt = nowStamp
	} else {
		run.CurrentExecutionIndex = idx + 1
		next := &run.Executions[run.CurrentExecutionIndex]
		if next.StartedAt == "" {
			next.StartedAt = nowStamp
		}
	}

	saved, err := s.registry.SaveTestRun(ctx, run)
	if err != nil {
		return qa.TestRun{}, err
	}

	// Mirror the outcome into the all-time executions collection feeding
	// the execution-rate metrics.
	if _, err := s.registry.SaveExecution(ctx, saved.Executions[idx]); err != nil {
		return qa.TestRun{}, err
	}

	return saved, nil
}

// RerunFailed resets every failed execution to Not Executed, clears its
// recorded outcome and re-arms the run at NotStarted with the index at 0.
// It reports ports.ErrNothingToRerun when the run has no failures.
func (s *Service) RerunFailed(ctx context.Context, runID string) (qa.TestRun, error) {
	run, err := s.registry.GetTestRun(ctx, runID)
	if err != nil {
		return qa.TestRun{}, err
	}

	reset := 0
	for i := range run.Executions {
		if run.Executions[i].Status.Code != qa.ExecFail {
			continue
		}
		exec := &run.Executions[i]
		exec.Status = qa.NewExecutionStatus(qa.ExecNotExecuted, "")
		exec.Comments = ""
		exec.ActualResult = ""
		exec.ExecutedAt = ""
		exec.StartedAt = ""
		exec.DurationSeconds = 0
		exec.StepResults = nil
		reset++
	}
	if reset == 0 {
		return run, ports.ErrNothingToRerun
	}

	run.Status = qa.RunNotStarted
	run.CurrentExecutionIndex = 0
	run.CompletedAt = ""

	return s.registry.SaveTestRun(ctx, run)
}

// Navigate clamps a requested position to the run's execution list. It is
// pure cursor movement for browsing; the persisted index only moves through
// RecordExecution and the start/pause bookkeeping.
func (s *Service) Navigate(run qa.TestRun, index int) int {
	return qa.ClampIndex(index, len(run.Executions))
}

// Progress reports recorded executions out of the total for a run.
func (s *Service) Progress(run qa.TestRun) (done int, total int) {
	total = len(run.Executions)
	for _, e := range run.Executions {
		switch e.Status.Code {
		case qa.ExecPass, qa.ExecFail, qa.ExecSkipped, qa.ExecBlocked:
			done++
		}
	}
	return done, total
}

// BuildRun assembles a new run over the given test cases, one pending
// execution per case in order, and persists it.
func (s *Service) BuildRun(ctx context.Context, name string, description string, suiteIDs []string, testCaseIDs []string) (qa.TestRun, error) {
	if name == "" {
		return qa.TestRun{}, errs.Wrap(ports.ErrValidation, "run name is required")
	}

	executions := make([]qa.TestExecution, 0, len(testCaseIDs))
	for _, id := range testCaseIDs {
		if _, err := s.registry.GetTestCase(ctx, id); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return qa.TestRun{}, errs.Wrapf(ports.ErrValidation, "unknown test case %q", id)
			}
			return qa.TestRun{}, err
		}
		executions = append(executions, qa.TestExecution{
			TestCaseID: id,
			Status:     qa.NewExecutionStatus(qa.ExecNotExecuted, ""),
		})
	}

	return s.registry.SaveTestRun(ctx, qa.TestRun{
		Name:        name,
		Description: description,
		SuiteIDs:    suiteIDs,
		TestCaseIDs: testCaseIDs,
		Executions:  executions,
		Status:      qa.RunNotStarted,
	})
}

// durationSeconds rounds to whole seconds and never goes negative.
func durationSeconds(startedAt string, executedAt time.Time) int64 {
	if startedAt == "" {
		return 0
	}
	start, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return 0
	}
	d := executedAt.Sub(start).Round(time.Second)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
