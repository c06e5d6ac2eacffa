package registry

import (
	"context"
	"errors"
	"testing"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
)

func TestSaveTestSuiteCreateAndUpdate(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	created, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Regression"})
	if err != nil {
		t.Fatalf("SaveTestSuite() error = %v", err)
	}
	if created.ID == "" || created.TestCaseIDs == nil {
		t.Fatalf("SaveTestSuite() = %+v", created)
	}

	created.Description = "Nightly regression set"
	updated, err := svc.SaveTestSuite(ctx, created)
	if err != nil {
		t.Fatalf("SaveTestSuite(update) error = %v", err)
	}
	if updated.ID != created.ID || updated.CreatedAt != created.CreatedAt {
		t.Fatalf("SaveTestSuite(update) identity changed: %+v", updated)
	}
}

func TestSaveTestSuiteRejectsParentCycle(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	root, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Root"})
	if err != nil {
		t.Fatalf("SaveTestSuite() error = %v", err)
	}
	child, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Child", ParentID: root.ID})
	if err != nil {
		t.Fatalf("SaveTestSuite(child) error = %v", err)
	}

	// Re-parenting the root under its own child must fail.
	root.ParentID = child.ID
	_, err = svc.SaveTestSuite(ctx, root)
	if !errors.Is(err, ports.ErrValidation) {
		t.Fatalf("SaveTestSuite(cycle) error = %v, want ErrValidation", err)
	}

	// A suite cannot be its own parent either.
	child.ParentID = child.ID
	_, err = svc.SaveTestSuite(ctx, child)
	if !errors.Is(err, ports.ErrValidation) {
		t.Fatalf("SaveTestSuite(self-parent) error = %v, want ErrValidation", err)
	}
}

func TestChildSuites(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	root, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Root"})
	if err != nil {
		t.Fatalf("SaveTestSuite() error = %v", err)
	}
	if _, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "A", ParentID: root.ID}); err != nil {
		t.Fatalf("SaveTestSuite(A) error = %v", err)
	}
	if _, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "B", ParentID: root.ID}); err != nil {
		t.Fatalf("SaveTestSuite(B) error = %v", err)
	}
	if _, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Unrelated"}); err != nil {
		t.Fatalf("SaveTestSuite(unrelated) error = %v", err)
	}

	children, err := svc.ChildSuites(ctx, root.ID)
	if err != nil {
		t.Fatalf("ChildSuites() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("ChildSuites() = %d suites, want 2", len(children))
	}
}

func TestDeleteTestSuiteDoesNotCascade(t *testing.T) {
	svc := newTestService(newFakeKV())
	ctx := context.Background()

	suite, err := svc.SaveTestSuite(ctx, qa.TestSuite{Name: "Doomed"})
	if err != nil {
		t.Fatalf("SaveTestSuite() error = %v", err)
	}
	member, err := svc.SaveTestCase(ctx, qa.TestCase{Title: "Member", SuiteID: suite.ID})
	if err != nil {
		t.Fatalf("SaveTestCase() error = %v", err)
	}

	deleted, err := svc.DeleteTestSuite(ctx, suite.ID)
	if err != nil {
		t.Fatalf("DeleteTestSuite() error = %v", err)
	}
	if !deleted {
		t.Fatalf("DeleteTestSuite() = false, want true")
	}

	// The member survives with a dangling suite reference.
	got, err := svc.GetTestCase(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetTestCase() error = %v", err)
	}
	if got.SuiteID != suite.ID {
		t.Fatalf("GetTestCase() suiteId = %q, want dangling %q", got.SuiteID, suite.ID)
	}
}
