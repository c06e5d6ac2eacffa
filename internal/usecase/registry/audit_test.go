package registry

import (
	"context"
	"fmt"
	"testing"

	"testvault/internal/domain/qa"
)

func TestAuditTrailRecordsMutations(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	saved, err := svc.SaveTestCase(ctx, qa.TestCase{Title: "Audited"})
	if err != nil {
		t.Fatalf("SaveTestCase() error = %v", err)
	}
	if _, err := svc.DeleteTestCase(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteTestCase() error = %v", err)
	}

	logs, err := svc.ListAuditLogs(ctx)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("ListAuditLogs() = %d entries, want 2", len(logs))
	}
	if logs[0].Action != "Created test case" || logs[1].Action != "Deleted test case" {
		t.Fatalf("ListAuditLogs() actions = %q, %q", logs[0].Action, logs[1].Action)
	}
	if logs[0].UserID != "tester" {
		t.Fatalf("ListAuditLogs() user = %q, want tester", logs[0].UserID)
	}
	if logs[0].EntityType != qa.EntityTestCase || logs[0].EntityID != saved.ID {
		t.Fatalf("ListAuditLogs() entity = %q %q", logs[0].EntityType, logs[0].EntityID)
	}
}

func TestAuditTrailCapDropsOldest(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(kv)
	ctx := context.Background()

	// Preload a full collection directly; writing 1000 entries through
	// SaveTestCase would be slow for no extra coverage.
	logs := make([]qa.AuditLog, 0, qa.AuditLogCap)
	for i := 0; i < qa.AuditLogCap; i++ {
		logs = append(logs, qa.AuditLog{
			ID:     fmt.Sprintf("old-%d", i),
			Action: "Created test case",
		})
	}
	if err := saveCollection(ctx, kv, KeyAuditLogs, logs); err != nil {
		t.Fatalf("saveCollection() error = %v", err)
	}

	if _, err := svc.SaveTestCase(ctx, qa.TestCase{Title: "Overflow"}); err != nil {
		t.Fatalf("SaveTestCase() error = %v", err)
	}

	got, err := svc.ListAuditLogs(ctx)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(got) != qa.AuditLogCap {
		t.Fatalf("ListAuditLogs() = %d entries, want %d", len(got), qa.AuditLogCap)
	}
	if got[0].ID != "old-1" {
		t.Fatalf("ListAuditLogs() first id = %q, want old-1", got[0].ID)
	}
	if got[len(got)-1].Action != "Created test case" || got[len(got)-1].ID == "old-999" {
		t.Fatalf("ListAuditLogs() last entry = %+v", got[len(got)-1])
	}
}

func TestRecentAuditLogsMostRecentFirst(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.SaveTestCase(ctx, qa.TestCase{Title: fmt.Sprintf("Case %d", i)}); err != nil {
			t.Fatalf("SaveTestCase() error = %v", err)
		}
	}

	recent, err := svc.RecentAuditLogs(ctx, 3)
	if err != nil {
		t.Fatalf("RecentAuditLogs() error = %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("RecentAuditLogs() = %d entries, want 3", len(recent))
	}
	if recent[0].Details["title"] != "Case 4" || recent[2].Details["title"] != "Case 2" {
		t.Fatalf("RecentAuditLogs() order = %q .. %q", recent[0].Details["title"], recent[2].Details["title"])
	}
}

func TestHistoryCapIsPerTestCase(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(kv)
	ctx := context.Background()

	other, err := svc.SaveTestCase(ctx, qa.TestCase{Title: "Bystander"})
	if err != nil {
		t.Fatalf("SaveTestCase() error = %v", err)
	}

	// Fill one case's history to the cap, then write once more.
	entries, err := loadCollection[qa.TestCaseHistory](ctx, kv, KeyHistory)
	if err != nil {
		t.Fatalf("loadCollection() error = %v", err)
	}
	for i := 0; i < qa.HistoryPerCaseCap; i++ {
		entries = append(entries, qa.TestCaseHistory{
			ID:         fmt.Sprintf("hist-%d", i),
			TestCaseID: "busy",
			Version:    i + 1,
		})
	}
	if err := saveCollection(ctx, kv, KeyHistory, entries); err != nil {
		t.Fatalf("saveCollection() error = %v", err)
	}

	if err := svc.appendHistory(ctx, qa.TestCase{ID: "busy", Version: qa.HistoryPerCaseCap + 1}, qa.ChangeUpdated); err != nil {
		t.Fatalf("appendHistory() error = %v", err)
	}

	busy, err := svc.ListHistory(ctx, "busy")
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(busy) != qa.HistoryPerCaseCap {
		t.Fatalf("ListHistory(busy) = %d entries, want %d", len(busy), qa.HistoryPerCaseCap)
	}
	if busy[0].Version != 2 {
		t.Fatalf("ListHistory(busy) oldest version = %d, want 2", busy[0].Version)
	}
	if busy[len(busy)-1].Version != qa.HistoryPerCaseCap+1 {
		t.Fatalf("ListHistory(busy) newest version = %d", busy[len(busy)-1].Version)
	}

	// The bystander's history is untouched.
	bystander, err := svc.ListHistory(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListHistory(bystander) error = %v", err)
	}
	if len(bystander) != 1 {
		t.Fatalf("ListHistory(bystander) = %d entries, want 1", len(bystander))
	}
}
