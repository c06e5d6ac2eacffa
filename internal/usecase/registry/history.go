package registry

import (
	"context"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
)

// appendHistory snapshots a test case after a write. History is capped per
// test case at qa.HistoryPerCaseCap entries, oldest dropped first; entries
// for other cases are untouched.
func (s *Service) appendHistory(ctx context.Context, tc qa.TestCase, changeType qa.ChangeType) error {
	entries, err := loadCollection[qa.TestCaseHistory](ctx, s.kv, KeyHistory)
	if err != nil {
		return err
	}

	entries = append(entries, qa.TestCaseHistory{
		ID:         s.newID(),
		TestCaseID: tc.ID,
		Version:    tc.Version,
		Snapshot:   tc,
		ChangedAt:  s.timestamp(),
		ChangeType: changeType,
	})

	count := 0
	for _, e := range entries {
		if e.TestCaseID == tc.ID {
			count++
		}
	}
	if count > qa.HistoryPerCaseCap {
		drop := count - qa.HistoryPerCaseCap
		kept := entries[:0]
		for _, e := range entries {
			if drop > 0 && e.TestCaseID == tc.ID {
				drop--
				continue
			}
			kept = append(kept, e)
		}
		entries = kept
	}

	return errs.Wrap(saveCollection(ctx, s.kv, KeyHistory, entries), "save history")
}

// ListHistory returns the history of one test case, oldest first.
func (s *Service) ListHistory(ctx context.Context, testCaseID string) ([]qa.TestCaseHistory, error) {
	entries, err := loadCollection[qa.TestCaseHistory](ctx, s.kv, KeyHistory)
	if err != nil {
		return nil, err
	}

	out := make([]qa.TestCaseHistory, 0, len(entries))
	for _, e := range entries {
		if e.TestCaseID == testCaseID {
			out = append(out, e)
		}
	}
	return out, nil
}
