package insights

import (
	"context"
	"time"

	"testvault/internal/domain/qa"
)

// Window is a closed date range applied to TestRun.CreatedAt. A zero To
// means "now".
type Window struct {
	From time.Time
	To   time.Time
}

// TrailingWindow builds a window covering the last days days ending at now.
func TrailingWindow(days int, now time.Time) Window {
	if days <= 0 {
		days = 7
	}
	return Window{
		From: now.AddDate(0, 0, -days),
		To:   now,
	}
}

func (w Window) contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// TrendBucket is one calendar day of pass/fail/skip counts.
type TrendBucket struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Pass    int    `json:"pass"`
	Fail    int    `json:"fail"`
	Skipped int    `json:"skipped"`
}

// ReportMetrics mirrors the dashboard shape with windowed execution
// metrics. The status and priority distributions deliberately stay
// all-time: only execution-derived numbers honor the window.
type ReportMetrics struct {
	TotalTestCases int                   `json:"totalTestCases"`
	ByStatus       map[qa.CaseStatus]int `json:"byStatus"`
	ByPriority     map[qa.Priority]int   `json:"byPriority"`
	Execution      ExecutionMetrics      `json:"execution"`
	Trend          []TrendBucket         `json:"trend"`
}

const trendDays = 7

// Report computes windowed report metrics. The window selects test runs by
// CreatedAt; executions count when they belong to a selected run.
func (s *Service) Report(ctx context.Context, window Window) (ReportMetrics, error) {
	now := s.clock.Now().UTC()
	if window.To.IsZero() {
		window.To = now
	}

	cases, err := s.registry.ListTestCases(ctx)
	if err != nil {
		return ReportMetrics{}, err
	}
	runs, err := s.registry.ListTestRuns(ctx)
	if err != nil {
		return ReportMetrics{}, err
	}
	execs, err := s.registry.ListExecutions(ctx)
	if err != nil {
		return ReportMetrics{}, err
	}

	selected := make(map[string]struct{}, len(runs))
	for _, run := range runs {
		created, ok := parseTimestamp(run.CreatedAt)
		if !ok {
			continue
		}
		if window.contains(created) {
			selected[run.ID] = struct{}{}
		}
	}

	windowed := make([]qa.TestExecution, 0, len(execs))
	for _, e := range execs {
		if _, ok := selected[e.RunID]; ok {
			windowed = append(windowed, e)
		}
	}

	return ReportMetrics{
		TotalTestCases: len(cases),
		ByStatus:       countByStatus(cases),
		ByPriority:     countByPriority(cases),
		Execution:      executionMetrics(windowed),
		Trend:          trend(execs, now),
	}, nil
}

// trend buckets the last trendDays calendar days, oldest first. Executions
// land in a bucket when ExecutedAt falls on the same calendar day, not
// within a rolling 24h window.
func trend(execs []qa.TestExecution, now time.Time) []TrendBucket {
	buckets := make([]TrendBucket, 0, trendDays)
	index := make(map[string]int, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		index[day] = len(buckets)
		buckets = append(buckets, TrendBucket{Date: day})
	}

	for _, e := range execs {
		executed, ok := parseTimestamp(e.ExecutedAt)
		if !ok {
			continue
		}
		idx, ok := index[executed.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		switch e.Status.Code {
		case qa.ExecPass:
			buckets[idx].Pass++
		case qa.ExecFail:
			buckets[idx].Fail++
		case qa.ExecSkipped:
			buckets[idx].Skipped++
		}
	}

	return buckets
}
