package qa

// All timestamps are ISO-8601 (RFC 3339) strings; identifiers are opaque
// unique strings. Entities live inside JSON-serialized collections, one
// collection per type.

type TestStep struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	ExpectedResult string `json:"expectedResult"`
}

type TestCase struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Preconditions   string          `json:"preconditions"`
	Steps           []TestStep      `json:"steps"`
	ExpectedResults string          `json:"expectedResults"`
	ActualResult    string          `json:"actualResult,omitempty"`
	Priority        Priority        `json:"priority"`
	Status          CaseStatus      `json:"status"`
	ExecutionStatus ExecutionStatus `json:"executionStatus"`
	Tags            []string        `json:"tags"`
	Screenshots     []string        `json:"screenshots"`
	// SuiteID is a weak reference; empty means unassigned, and a dangling id
	// is read as unassigned too.
	SuiteID   string `json:"suiteId,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	// Version starts at 1 and increases by exactly 1 per successful update.
	Version int `json:"version"`
}

type TestSuite struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// ParentID forms a tree; the parent chain must stay acyclic.
	ParentID string `json:"parentId,omitempty"`
	// TestCaseIDs is denormalized; TestCase.SuiteID is the authoritative
	// membership signal.
	TestCaseIDs []string `json:"testCaseIds"`
	Tags        []string `json:"tags,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type TestStepResult struct {
	StepID       string          `json:"stepId"`
	Status       ExecutionStatus `json:"status"`
	ActualResult string          `json:"actualResult"`
	Comments     string          `json:"comments,omitempty"`
	Screenshots  []string        `json:"screenshots,omitempty"`
}

type TestExecution struct {
	ID           string          `json:"id"`
	TestCaseID   string          `json:"testCaseId"`
	RunID        string          `json:"runId,omitempty"`
	Status       ExecutionStatus `json:"status"`
	Comments     string          `json:"comments"`
	ActualResult string          `json:"actualResult,omitempty"`
	Attachments  []string        `json:"attachments"`
	ExecutedAt   string          `json:"executedAt"`
	ExecutedBy   string          `json:"executedBy"`
	StartedAt    string          `json:"startedAt,omitempty"`
	// DurationSeconds equals executedAt minus startedAt rounded to whole
	// seconds, never negative.
	DurationSeconds int64            `json:"duration,omitempty"`
	StepResults     []TestStepResult `json:"stepResults,omitempty"`
}

type TestRun struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ProjectID   string   `json:"projectId,omitempty"`
	SuiteIDs    []string `json:"suiteIds"`
	TestCaseIDs []string `json:"testCaseIds"`
	// Executions are ordered; index order is execution order.
	Executions []TestExecution `json:"executions"`
	Status     RunStatus       `json:"status"`
	AssignedTo []string        `json:"assignedTo,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
	StartedAt  string          `json:"startedAt,omitempty"`
	// CompletedAt is set if and only if Status is RunCompleted.
	CompletedAt string `json:"completedAt,omitempty"`
	PausedAt    string `json:"pausedAt,omitempty"`
	// CurrentExecutionIndex points into Executions, 0-based, and stays
	// within [0, len(Executions)].
	CurrentExecutionIndex int `json:"currentExecutionIndex"`
}

type AuditLog struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	EntityType EntityType        `json:"entityType"`
	EntityID   string            `json:"entityId"`
	UserID     string            `json:"userId"`
	Timestamp  string            `json:"timestamp"`
	Details    map[string]string `json:"details,omitempty"`
}

type TestCaseHistory struct {
	ID         string     `json:"id"`
	TestCaseID string     `json:"testCaseId"`
	Version    int        `json:"version"`
	Snapshot   TestCase   `json:"snapshot"`
	ChangedAt  string     `json:"changedAt"`
	ChangeType ChangeType `json:"changeType"`
}

const (
	// AuditLogCap bounds the audit collection; oldest entries drop first.
	AuditLogCap = 1000
	// HistoryPerCaseCap bounds history entries kept per test case.
	HistoryPerCaseCap = 100
)
