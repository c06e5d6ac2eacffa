// Package insights derives dashboard and report statistics from the
// current collections. It is pure read-side: nothing is cached, every call
// recomputes from a fresh snapshot.
package insights

import (
	"context"
	"time"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
	"testvault/internal/usecase/registry"
)

type Service struct {
	registry *registry.Service
	clock    ports.Clock
}

func NewService(reg *registry.Service, clock ports.Clock) *Service {
	return &Service{registry: reg, clock: clock}
}

// ExecutionMetrics holds percentage rates over a set of executions. All
// rates are 0 when TotalExecutions is 0; otherwise they sum to 100 within
// rounding.
type ExecutionMetrics struct {
	TotalExecutions int     `json:"totalExecutions"`
	PassRate        float64 `json:"passRate"`
	FailRate        float64 `json:"failRate"`
	SkipRate        float64 `json:"skipRate"`
	BlockRate       float64 `json:"blockRate"`
}

// DashboardMetrics is the unwindowed, all-time view. Status and priority
// groups with zero members are omitted, not zero-filled.
type DashboardMetrics struct {
	TotalTestCases int                   `json:"totalTestCases"`
	ByStatus       map[qa.CaseStatus]int `json:"byStatus"`
	ByPriority     map[qa.Priority]int   `json:"byPriority"`
	Execution      ExecutionMetrics      `json:"execution"`
	RecentActivity []qa.AuditLog         `json:"recentActivity"`
}

const recentActivityLimit = 10

func (s *Service) Dashboard(ctx context.Context) (DashboardMetrics, error) {
	cases, err := s.registry.ListTestCases(ctx)
	if err != nil {
		return DashboardMetrics{}, err
	}
	execs, err := s.registry.ListExecutions(ctx)
	if err != nil {
		return DashboardMetrics{}, err
	}
	recent, err := s.registry.RecentAuditLogs(ctx, recentActivityLimit)
	if err != nil {
		return DashboardMetrics{}, err
	}

	return DashboardMetrics{
		TotalTestCases: len(cases),
		ByStatus:       countByStatus(cases),
		ByPriority:     countByPriority(cases),
		Execution:      executionMetrics(execs),
		RecentActivity: recent,
	}, nil
}

func countByStatus(cases []qa.TestCase) map[qa.CaseStatus]int {
	out := make(map[qa.CaseStatus]int)
	for _, tc := range cases {
		out[tc.Status]++
	}
	return out
}

func countByPriority(cases []qa.TestCase) map[qa.Priority]int {
	out := make(map[qa.Priority]int)
	for _, tc := range cases {
		out[tc.Priority]++
	}
	return out
}

func executionMetrics(execs []qa.TestExecution) ExecutionMetrics {
	m := ExecutionMetrics{TotalExecutions: len(execs)}
	if m.TotalExecutions == 0 {
		return m
	}

	var pass, fail, skip, block int
	for _, e := range execs {
		switch e.Status.Code {
		case qa.ExecPass:
			pass++
		case qa.ExecFail:
			fail++
		case qa.ExecSkipped:
			skip++
		case qa.ExecBlocked:
			block++
		}
	}

	total := float64(m.TotalExecutions)
	m.PassRate = float64(pass) / total * 100
	m.FailRate = float64(fail) / total * 100
	m.SkipRate = float64(skip) / total * 100
	m.BlockRate = float64(block) / total * 100
	return m
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
