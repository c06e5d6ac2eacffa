package registry

import (
	"context"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
)

func (s *Service) ListTestSuites(ctx context.Context) ([]qa.TestSuite, error) {
	return loadCollection[qa.TestSuite](ctx, s.kv, KeyTestSuites)
}

func (s *Service) GetTestSuite(ctx context.Context, id string) (qa.TestSuite, error) {
	suites, err := s.ListTestSuites(ctx)
	if err != nil {
		return qa.TestSuite{}, err
	}
	for _, suite := range suites {
		if suite.ID == id {
			return suite, nil
		}
	}
	return qa.TestSuite{}, errs.Wrapf(ports.ErrNotFound, "test suite %q", id)
}

// ChildSuites computes children by filtering on ParentID; no back-pointers
// are stored.
func (s *Service) ChildSuites(ctx context.Context, parentID string) ([]qa.TestSuite, error) {
	suites, err := s.ListTestSuites(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]qa.TestSuite, 0, len(suites))
	for _, suite := range suites {
		if suite.ParentID == parentID {
			out = append(out, suite)
		}
	}
	return out, nil
}

func (s *Service) SaveTestSuite(ctx context.Context, input qa.TestSuite) (qa.TestSuite, error) {
	suites, err := s.ListTestSuites(ctx)
	if err != nil {
		return qa.TestSuite{}, err
	}

	idx := -1
	if input.ID != "" {
		for i, suite := range suites {
			if suite.ID == input.ID {
				idx = i
				break
			}
		}
	}

	// The parent chain must stay acyclic.
	if input.ParentID != "" && idx >= 0 {
		parentOf := make(map[string]string, len(suites))
		for _, suite := range suites {
			parentOf[suite.ID] = suite.ParentID
		}
		if qa.SuiteParentWouldCycle(parentOf, input.ID, input.ParentID) {
			return qa.TestSuite{}, errs.Wrapf(ports.ErrValidation, "suite %q: parent %q would form a cycle", input.ID, input.ParentID)
		}
	}

	now := s.timestamp()
	saved := NormalizeTestSuite(input)
	action := "Created test suite"
	if idx >= 0 {
		existing := suites[idx]
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		saved.UpdatedAt = now
		suites[idx] = saved
		action = "Updated test suite"
	} else {
		saved.ID = s.newID()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		suites = append(suites, saved)
	}

	if err := saveCollection(ctx, s.kv, KeyTestSuites, suites); err != nil {
		return qa.TestSuite{}, err
	}
	if err := s.appendAudit(ctx, action, qa.EntityTestSuite, saved.ID, map[string]string{
		"name": saved.Name,
	}); err != nil {
		return qa.TestSuite{}, err
	}
	return saved, nil
}

// DeleteTestSuite removes the suite only. Member test cases are not
// cascade-deleted or re-homed; their SuiteID dangles and readers treat it
// as unassigned.
func (s *Service) DeleteTestSuite(ctx context.Context, id string) (bool, error) {
	suites, err := s.ListTestSuites(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, suite := range suites {
		if suite.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := suites[idx]
	suites = append(suites[:idx], suites[idx+1:]...)
	if err := saveCollection(ctx, s.kv, KeyTestSuites, suites); err != nil {
		return false, err
	}
	if err := s.appendAudit(ctx, "Deleted test suite", qa.EntityTestSuite, id, map[string]string{
		"name": removed.Name,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func NormalizeTestSuite(suite qa.TestSuite) qa.TestSuite {
	if suite.TestCaseIDs == nil {
		suite.TestCaseIDs = []string{}
	}
	return suite
}
