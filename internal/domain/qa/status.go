package qa

// Priority levels of a test case.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// CaseStatus is the authoring lifecycle of a test case. Archived is a field
// value, not deletion.
type CaseStatus string

const (
	CaseDraft    CaseStatus = "Draft"
	CaseActive   CaseStatus = "Active"
	CaseArchived CaseStatus = "Archived"
)

// ExecutionCode classifies the outcome of running a test case.
type ExecutionCode string

const (
	ExecPass        ExecutionCode = "Pass"
	ExecFail        ExecutionCode = "Fail"
	ExecSkipped     ExecutionCode = "Skipped"
	ExecBlocked     ExecutionCode = "Blocked"
	ExecInProgress  ExecutionCode = "In Progress"
	ExecNotRun      ExecutionCode = "Not Run"
	ExecNotExecuted ExecutionCode = "Not Executed"
	ExecOther       ExecutionCode = "Other"
)

// ExecutionStatus pairs an outcome code with an optional free-text label.
// The label is meaningful only for ExecOther; NewExecutionStatus and
// Normalize drop it for every other code, so a stray custom label cannot
// exist without the Other code.
type ExecutionStatus struct {
	Code   ExecutionCode `json:"code"`
	Custom string        `json:"custom,omitempty"`
}

func NewExecutionStatus(code ExecutionCode, custom string) ExecutionStatus {
	s := ExecutionStatus{Code: code, Custom: custom}
	return s.Normalize()
}

func (s ExecutionStatus) Normalize() ExecutionStatus {
	if s.Code == "" {
		s.Code = ExecNotRun
	}
	if s.Code != ExecOther {
		s.Custom = ""
	}
	return s
}

// Label is the display form: the custom text for Other, the code otherwise.
func (s ExecutionStatus) Label() string {
	if s.Code == ExecOther && s.Custom != "" {
		return s.Custom
	}
	return string(s.Code)
}

// RunStatus is the state of a test run's execution session.
type RunStatus string

const (
	RunNotStarted RunStatus = "Not Started"
	RunInProgress RunStatus = "In Progress"
	RunCompleted  RunStatus = "Completed"
	RunPaused     RunStatus = "Paused"
	RunCancelled  RunStatus = "Cancelled"
)

// ChangeType classifies a test case history entry.
type ChangeType string

const (
	ChangeCreated  ChangeType = "Created"
	ChangeUpdated  ChangeType = "Updated"
	ChangeDeleted  ChangeType = "Deleted"
	ChangeRestored ChangeType = "Restored"
)

// EntityType names the collection an audit entry refers to.
type EntityType string

const (
	EntityTestCase  EntityType = "TestCase"
	EntityTestSuite EntityType = "TestSuite"
	EntityTestRun   EntityType = "TestRun"
	EntityExecution EntityType = "TestExecution"
)
