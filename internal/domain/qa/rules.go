package qa

// Run state machine:
//
//	NotStarted -> InProgress <-> Paused
//	InProgress -> Completed            (terminal)
//	NotStarted|InProgress|Paused -> Cancelled (terminal)
//
// Transitions are driven by explicit user actions, never by a timer.

func IsTerminalRunStatus(s RunStatus) bool {
	return s == RunCompleted || s == RunCancelled
}

func CanStartRun(s RunStatus) bool {
	return s == RunNotStarted || s == RunPaused
}

func CanPauseRun(s RunStatus) bool {
	return s == RunInProgress
}

func CanCancelRun(s RunStatus) bool {
	return !IsTerminalRunStatus(s)
}

// CanRecordExecution guards recording an outcome: only an in-progress run
// accepts results.
func CanRecordExecution(s RunStatus) bool {
	return s == RunInProgress
}

// IsRecordableOutcome reports whether code is a legal outcome for
// recording an execution within a run.
func IsRecordableOutcome(code ExecutionCode) bool {
	switch code {
	case ExecPass, ExecFail, ExecSkipped, ExecBlocked:
		return true
	default:
		return false
	}
}

// SuiteParentWouldCycle reports whether re-parenting suite id under
// parentID would create a cycle. parentOf maps suite id -> current parent
// id; missing and empty entries both mean root. Dangling parents terminate
// the walk, matching the lazy validation of weak references.
func SuiteParentWouldCycle(parentOf map[string]string, id string, parentID string) bool {
	if id == "" || parentID == "" {
		return false
	}
	seen := make(map[string]struct{}, len(parentOf))
	for cur := parentID; cur != ""; cur = parentOf[cur] {
		if cur == id {
			return true
		}
		if _, ok := seen[cur]; ok {
			// Pre-existing loop above us; refuse to attach to it.
			return true
		}
		seen[cur] = struct{}{}
	}
	return false
}

// ClampIndex clamps a navigation index to [0, length-1]; a zero-length list
// clamps to 0.
func ClampIndex(index int, length int) int {
	if length <= 0 || index < 0 {
		return 0
	}
	if index > length-1 {
		return length - 1
	}
	return index
}
