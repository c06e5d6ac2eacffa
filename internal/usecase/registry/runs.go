package registry

import (
	"context"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
)

func (s *Service) ListTestRuns(ctx context.Context) ([]qa.TestRun, error) {
	return loadCollection[qa.TestRun](ctx, s.kv, KeyTestRuns)
}

func (s *Service) GetTestRun(ctx context.Context, id string) (qa.TestRun, error) {
	runs, err := s.ListTestRuns(ctx)
	if err != nil {
		return qa.TestRun{}, err
	}
	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
	}
	return qa.TestRun{}, errs.Wrapf(ports.ErrNotFound, "test run %q", id)
}

func (s *Service) SaveTestRun(ctx context.Context, input qa.TestRun) (qa.TestRun, error) {
	runs, err := s.ListTestRuns(ctx)
	if err != nil {
		return qa.TestRun{}, err
	}

	idx := -1
	if input.ID != "" {
		for i, run := range runs {
			if run.ID == input.ID {
				idx = i
				break
			}
		}
	}

	now := s.timestamp()
	saved := NormalizeTestRun(input)
	for i := range saved.Executions {
		if saved.Executions[i].ID == "" {
			saved.Executions[i].ID = s.newID()
		}
	}
	action := "Created test run"
	if idx >= 0 {
		existing := runs[idx]
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		saved.UpdatedAt = now
		runs[idx] = saved
		action = "Updated test run"
	} else {
		saved.ID = s.newID()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		runs = append(runs, saved)
	}

	if err := saveCollection(ctx, s.kv, KeyTestRuns, runs); err != nil {
		return qa.TestRun{}, err
	}
	if err := s.appendAudit(ctx, action, qa.EntityTestRun, saved.ID, map[string]string{
		"name":   saved.Name,
		"status": string(saved.Status),
	}); err != nil {
		return qa.TestRun{}, err
	}
	return saved, nil
}

func (s *Service) DeleteTestRun(ctx context.Context, id string) (bool, error) {
	runs, err := s.ListTestRuns(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, run := range runs {
		if run.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := runs[idx]
	runs = append(runs[:idx], runs[idx+1:]...)
	if err := saveCollection(ctx, s.kv, KeyTestRuns, runs); err != nil {
		return false, err
	}
	if err := s.appendAudit(ctx, "Deleted test run", qa.EntityTestRun, id, map[string]string{
		"name": removed.Name,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func NormalizeTestRun(run qa.TestRun) qa.TestRun {
	if run.Status == "" {
		run.Status = qa.RunNotStarted
	}
	if run.SuiteIDs == nil {
		run.SuiteIDs = []string{}
	}
	if run.TestCaseIDs == nil {
		run.TestCaseIDs = []string{}
	}
	if run.Executions == nil {
		run.Executions = []qa.TestExecution{}
	}
	for i := range run.Executions {
		run.Executions[i] = NormalizeExecution(run.Executions[i])
	}
	// The pointer stays within [0, len(Executions)].
	if run.CurrentExecutionIndex < 0 {
		run.CurrentExecutionIndex = 0
	}
	if run.CurrentExecutionIndex > len(run.Executions) {
		run.CurrentExecutionIndex = len(run.Executions)
	}
	// CompletedAt is set if and only if the run completed.
	if run.Status != qa.RunCompleted {
		run.CompletedAt = ""
	}
	return run
}
