// Package snapshot serializes all collections into one portable document
// and restores them from it. Import validates the whole snapshot before
// any write, so a malformed payload never corrupts stored collections, and
// collections the snapshot omits are left untouched.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"testvault/internal/bootstrap/logging"
	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
)

const (
	FormatTag     = "testvault-snapshot"
	FormatVersion = 1
)

type Snapshot struct {
	Format     string `json:"format"`
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt"`

	TestCases  []qa.TestCase        `json:"testCases,omitempty"`
	TestSuites []qa.TestSuite       `json:"testSuites,omitempty"`
	TestRuns   []qa.TestRun         `json:"testRuns,omitempty"`
	Executions []qa.TestExecution   `json:"executions,omitempty"`
	AuditLogs  []qa.AuditLog        `json:"auditLogs,omitempty"`
	History    []qa.TestCaseHistory `json:"history,omitempty"`

	// raw tracks which collection keys the document actually carried, so a
	// present-but-empty collection still overwrites and an absent one does
	// not.
	raw map[string]json.RawMessage
}

type Service struct {
	registry *registry.Service
	clock    ports.Clock
}

func NewService(reg *registry.Service, clock ports.Clock) *Service {
	return &Service{registry: reg, clock: clock}
}

// ExportAll reads every collection and returns the serialized snapshot.
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	snap := Snapshot{
		Format:     FormatTag,
		Version:    FormatVersion,
		ExportedAt: s.clock.Now().UTC().Format(time.RFC3339),
	}

	var err error
	if snap.TestCases, err = s.registry.ListTestCases(ctx); err != nil {
		return nil, err
	}
	if snap.TestSuites, err = s.registry.ListTestSuites(ctx); err != nil {
		return nil, err
	}
	if snap.TestRuns, err = s.registry.ListTestRuns(ctx); err != nil {
		return nil, err
	}
	if snap.Executions, err = s.registry.ListExecutions(ctx); err != nil {
		return nil, err
	}
	if snap.AuditLogs, err = s.registry.ListAuditLogs(ctx); err != nil {
		return nil, err
	}
	if snap.History, err = loadHistory(ctx, s.registry); err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errs.Wrap(err, "encode snapshot")
	}
	return out, nil
}

// ImportAll parses, validates and applies a snapshot. Only collections the
// document carries are overwritten; defaulting rules fill optional fields
// missing from older snapshots.
func (s *Service) ImportAll(ctx context.Context, data []byte) error {
	snap, err := Parse(data)
	if err != nil {
		return err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "snapshot"))
	kv := s.registry.Store()

	if snap.has("testCases") {
		cases := make([]qa.TestCase, 0, len(snap.TestCases))
		for _, tc := range snap.TestCases {
			cases = append(cases, registry.NormalizeTestCase(tc))
		}
		if err := writeCollection(ctx, kv, registry.KeyTestCases, cases); err != nil {
			return err
		}
	}
	if snap.has("testSuites") {
		suites := make([]qa.TestSuite, 0, len(snap.TestSuites))
		for _, suite := range snap.TestSuites {
			suites = append(suites, registry.NormalizeTestSuite(suite))
		}
		if err := writeCollection(ctx, kv, registry.KeyTestSuites, suites); err != nil {
			return err
		}
	}
	if snap.has("testRuns") {
		runs := make([]qa.TestRun, 0, len(snap.TestRuns))
		for _, run := range snap.TestRuns {
			runs = append(runs, registry.NormalizeTestRun(run))
		}
		if err := writeCollection(ctx, kv, registry.KeyTestRuns, runs); err != nil {
			return err
		}
	}
	if snap.has("executions") {
		execs := make([]qa.TestExecution, 0, len(snap.Executions))
		for _, e := range snap.Executions {
			execs = append(execs, registry.NormalizeExecution(e))
		}
		if err := writeCollection(ctx, kv, registry.KeyExecutions, execs); err != nil {
			return err
		}
	}
	if snap.has("auditLogs") {
		if err := writeCollection(ctx, kv, registry.KeyAuditLogs, snap.AuditLogs); err != nil {
			return err
		}
	}
	if snap.has("history") {
		if err := writeCollection(ctx, kv, registry.KeyHistory, snap.History); err != nil {
			return err
		}
	}

	logging.Info(logCtx, "snapshot imported",
		slog.Int("test_cases", len(snap.TestCases)),
		slog.Int("test_suites", len(snap.TestSuites)),
		slog.Int("test_runs", len(snap.TestRuns)))
	return nil
}

// Parse decodes and shape-checks a snapshot without touching storage.
func Parse(data []byte) (Snapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, errs.Wrap(ports.ErrSnapshotFormat, "snapshot is not a JSON object")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errs.Wrap(ports.ErrSnapshotFormat, err.Error())
	}
	if snap.Format != FormatTag {
		return Snapshot{}, errs.Wrapf(ports.ErrSnapshotFormat, "format tag %q", snap.Format)
	}
	if snap.Version < 1 || snap.Version > FormatVersion {
		return Snapshot{}, errs.Wrapf(ports.ErrSnapshotFormat, "unsupported version %d", snap.Version)
	}

	snap.raw = probe
	return snap, nil
}

func (s Snapshot) has(key string) bool {
	_, ok := s.raw[key]
	return ok
}

func writeCollection[T any](ctx context.Context, kv ports.KVStore, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return errs.Wrapf(err, "encode collection %q", key)
	}
	return errs.Wrapf(kv.Set(ctx, key, string(raw)), "write collection %q", key)
}

func loadHistory(ctx context.Context, reg *registry.Service) ([]qa.TestCaseHistory, error) {
	// ListHistory filters by test case; the export wants all entries.
	raw, found, err := reg.Store().Get(ctx, registry.KeyHistory)
	if err != nil {
		return nil, err
	}
	if !found {
		return []qa.TestCaseHistory{}, nil
	}
	var entries []qa.TestCaseHistory
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []qa.TestCaseHistory{}, nil
	}
	return entries, nil
}
