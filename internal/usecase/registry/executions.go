package registry

import (
	"context"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
)

// The executions collection is the flat, all-time record of outcomes; it
// feeds the execution-rate metrics. Executions embedded in a run are the
// run's working copies.

func (s *Service) ListExecutions(ctx context.Context) ([]qa.TestExecution, error) {
	return loadCollection[qa.TestExecution](ctx, s.kv, KeyExecutions)
}

func (s *Service) GetExecution(ctx context.Context, id string) (qa.TestExecution, error) {
	execs, err := s.ListExecutions(ctx)
	if err != nil {
		return qa.TestExecution{}, err
	}
	for _, e := range execs {
		if e.ID == id {
			return e, nil
		}
	}
	return qa.TestExecution{}, errs.Wrapf(ports.ErrNotFound, "test execution %q", id)
}

func (s *Service) SaveExecution(ctx context.Context, input qa.TestExecution) (qa.TestExecution, error) {
	execs, err := s.ListExecutions(ctx)
	if err != nil {
		return qa.TestExecution{}, err
	}

	idx := -1
	if input.ID != "" {
		for i, e := range execs {
			if e.ID == input.ID {
				idx = i
				break
			}
		}
	}

	saved := NormalizeExecution(input)
	action := "Created test execution"
	if idx >= 0 {
		saved.ID = execs[idx].ID
		execs[idx] = saved
		action = "Updated test execution"
	} else {
		if saved.ID == "" {
			saved.ID = s.newID()
		}
		execs = append(execs, saved)
	}

	if err := saveCollection(ctx, s.kv, KeyExecutions, execs); err != nil {
		return qa.TestExecution{}, err
	}
	if err := s.appendAudit(ctx, action, qa.EntityExecution, saved.ID, map[string]string{
		"test_case_id": saved.TestCaseID,
		"status":       saved.Status.Label(),
	}); err != nil {
		return qa.TestExecution{}, err
	}
	return saved, nil
}

func (s *Service) DeleteExecution(ctx context.Context, id string) (bool, error) {
	execs, err := s.ListExecutions(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, e := range execs {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	execs = append(execs[:idx], execs[idx+1:]...)
	if err := saveCollection(ctx, s.kv, KeyExecutions, execs); err != nil {
		return false, err
	}
	if err := s.appendAudit(ctx, "Deleted test execution", qa.EntityExecution, id, nil); err != nil {
		return false, err
	}
	return true, nil
}

func NormalizeExecution(e qa.TestExecution) qa.TestExecution {
	if e.Status.Code == "" {
		e.Status.Code = qa.ExecNotExecuted
	}
	e.Status = e.Status.Normalize()
	if e.Attachments == nil {
		e.Attachments = []string{}
	}
	if e.DurationSeconds < 0 {
		e.DurationSeconds = 0
	}
	for i := range e.StepResults {
		e.StepResults[i].Status = e.StepResults[i].Status.Normalize()
	}
	return e
}
