package registry

import (
	"context"
	"fmt"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
)

// ListTestCases loads the whole collection; there is no lazy loading, the
// store is wholly local.
func (s *Service) ListTestCases(ctx context.Context) ([]qa.TestCase, error) {
	return loadCollection[qa.TestCase](ctx, s.kv, KeyTestCases)
}

func (s *Service) GetTestCase(ctx context.Context, id string) (qa.TestCase, error) {
	cases, err := s.ListTestCases(ctx)
	if err != nil {
		return qa.TestCase{}, err
	}
	for _, tc := range cases {
		if tc.ID == id {
			return tc, nil
		}
	}
	return qa.TestCase{}, errs.Wrapf(ports.ErrNotFound, "test case %q", id)
}

// SaveTestCase updates the record matching input.ID or, when the id is
// unset or unmatched, creates a new one with defaults filled. Updates keep
// CreatedAt, set UpdatedAt and increment Version by exactly 1. Every save
// emits one audit entry and one history snapshot.
func (s *Service) SaveTestCase(ctx context.Context, input qa.TestCase) (qa.TestCase, error) {
	cases, err := s.ListTestCases(ctx)
	if err != nil {
		return qa.TestCase{}, err
	}

	now := s.timestamp()
	idx := -1
	if input.ID != "" {
		for i, tc := range cases {
			if tc.ID == input.ID {
				idx = i
				break
			}
		}
	}

	saved := NormalizeTestCase(input)
	changeType := qa.ChangeCreated
	action := "Created test case"
	if idx >= 0 {
		existing := cases[idx]
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		saved.Version = existing.Version + 1
		saved.UpdatedAt = now
		cases[idx] = saved
		changeType = qa.ChangeUpdated
		action = "Updated test case"
	} else {
		// An unmatched id falls back to create-new with a fresh id.
		saved.ID = s.newID()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		saved.Version = 1
		cases = append(cases, saved)
	}

	if err := saveCollection(ctx, s.kv, KeyTestCases, cases); err != nil {
		return qa.TestCase{}, err
	}
	if err := s.appendAudit(ctx, action, qa.EntityTestCase, saved.ID, map[string]string{
		"title":   saved.Title,
		"version": fmt.Sprintf("%d", saved.Version),
	}); err != nil {
		return qa.TestCase{}, err
	}
	if err := s.appendHistory(ctx, saved, changeType); err != nil {
		return qa.TestCase{}, err
	}
	return saved, nil
}

// DeleteTestCase removes the matching record and reports whether one was
// found. Not-found is not an error; it simply returns false.
func (s *Service) DeleteTestCase(ctx context.Context, id string) (bool, error) {
	cases, err := s.ListTestCases(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, tc := range cases {
		if tc.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := cases[idx]
	cases = append(cases[:idx], cases[idx+1:]...)
	if err := saveCollection(ctx, s.kv, KeyTestCases, cases); err != nil {
		return false, err
	}
	if err := s.appendAudit(ctx, "Deleted test case", qa.EntityTestCase, id, map[string]string{
		"title": removed.Title,
	}); err != nil {
		return false, err
	}
	if err := s.appendHistory(ctx, removed, qa.ChangeDeleted); err != nil {
		return false, err
	}
	return true, nil
}

// RestoreTestCase writes a historical snapshot back over the current
// record. The restore itself is an update: the version keeps increasing.
func (s *Service) RestoreTestCase(ctx context.Context, testCaseID string, version int) (qa.TestCase, error) {
	entries, err := s.ListHistory(ctx, testCaseID)
	if err != nil {
		return qa.TestCase{}, err
	}

	var snapshot *qa.TestCase
	for i := range entries {
		if entries[i].Version == version {
			snapshot = &entries[i].Snapshot
			break
		}
	}
	if snapshot == nil {
		return qa.TestCase{}, errs.Wrapf(ports.ErrNotFound, "history version %d for test case %q", version, testCaseID)
	}

	cases, err := s.ListTestCases(ctx)
	if err != nil {
		return qa.TestCase{}, err
	}

	now := s.timestamp()
	restored := NormalizeTestCase(*snapshot)
	restored.ID = testCaseID
	restored.UpdatedAt = now

	idx := -1
	for i, tc := range cases {
		if tc.ID == testCaseID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		restored.CreatedAt = cases[idx].CreatedAt
		restored.Version = cases[idx].Version + 1
		cases[idx] = restored
	} else {
		restored.CreatedAt = now
		restored.Version = snapshot.Version + 1
		cases = append(cases, restored)
	}

	if err := saveCollection(ctx, s.kv, KeyTestCases, cases); err != nil {
		return qa.TestCase{}, err
	}
	if err := s.appendAudit(ctx, "Restored test case", qa.EntityTestCase, testCaseID, map[string]string{
		"restored_version": fmt.Sprintf("%d", version),
	}); err != nil {
		return qa.TestCase{}, err
	}
	if err := s.appendHistory(ctx, restored, qa.ChangeRestored); err != nil {
		return qa.TestCase{}, err
	}
	return restored, nil
}

// NormalizeTestCase fills required fields with type-correct defaults; the
// same rules apply on save and on snapshot import.
func NormalizeTestCase(tc qa.TestCase) qa.TestCase {
	if tc.Priority == "" {
		tc.Priority = qa.PriorityMedium
	}
	if tc.Status == "" {
		tc.Status = qa.CaseDraft
	}
	tc.ExecutionStatus = tc.ExecutionStatus.Normalize()
	if tc.Steps == nil {
		tc.Steps = []qa.TestStep{}
	}
	if tc.Tags == nil {
		tc.Tags = []string{}
	}
	if tc.Screenshots == nil {
		tc.Screenshots = []string{}
	}
	for i := range tc.Steps {
		if tc.Steps[i].ID == "" {
			tc.Steps[i].ID = fmt.Sprintf("step-%d", i+1)
		}
	}
	if tc.Version < 1 {
		tc.Version = 1
	}
	return tc
}
