package engine

import "time"

// Priority orders processes for victim selection during recovery.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a priority string, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// rank maps priorities to an ordinal for victim selection. Lower rank is
// terminated first.
func (p Priority) rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	default:
		return 1
	}
}

// process is the store-internal record for a simulated process.
type process struct {
	id         string
	priority   Priority
	createdAt  time.Time
	held       []string // resource ids, allocation order
	waitingFor []string // resource ids, request order
}

// resource is the store-internal record for a unit-capacity resource.
type resource struct {
	id        string
	rtype     string
	createdAt time.Time
	heldBy    string   // empty when available
	waitQueue []string // process ids, FCFS order
}

func (r *resource) available() bool {
	return r.heldBy == ""
}

// ProcessView is the read-only snapshot of a process.
type ProcessView struct {
	ID         string   `json:"id"`
	Priority   Priority `json:"priority"`
	Held       []string `json:"heldResources"`
	WaitingFor []string `json:"waitingFor"`
}

// ResourceView is the read-only snapshot of a resource.
type ResourceView struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Status    string   `json:"status"` // available | allocated
	HeldBy    string   `json:"heldBy,omitempty"`
	WaitQueue []string `json:"waitingProcesses"`
}

// RequestResult classifies the outcome of a resource request.
type RequestResult string

const (
	ResultAllocated RequestResult = "allocated"
	ResultWaiting   RequestResult = "waiting"
	ResultDenied    RequestResult = "denied"
)

// RequestOutcome is returned by Request for every non-error branch.
// A denied outcome is deadlock avoidance, not a failure: the request was
// refused before it could close a cycle, and Cycle carries the cycle that
// would have formed.
type RequestOutcome struct {
	Result    RequestResult `json:"result"`
	Holder    string        `json:"holder,omitempty"`
	Prevented bool          `json:"prevented,omitempty"`
	Cycle     []string      `json:"cycle,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// DetectResult is returned by Detect.
type DetectResult struct {
	Deadlock bool     `json:"deadlock"`
	Cycle    []string `json:"cycle,omitempty"`
	Message  string   `json:"message"`
}

// RiskLevel grades a predicted deadlock scenario.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
)

// Prediction names a (process, resource) pair whose hypothetical request
// edge would close a cycle.
type Prediction struct {
	Process  string    `json:"process"`
	Resource string    `json:"resource"`
	Risk     RiskLevel `json:"risk"`
}

// RecoveryResult is returned by Recover after terminating a victim.
type RecoveryResult struct {
	Victim   string   `json:"victim"`
	Released []string `json:"released"`
	Message  string   `json:"message"`
}

// SystemStatus is the live status snapshot served by /v1/status.
type SystemStatus struct {
	Status             string   `json:"status"` // SAFE | DEADLOCK
	ActiveProcesses    int      `json:"activeProcesses"`
	TotalResources     int      `json:"totalResources"`
	DeadlocksDetected  int64    `json:"deadlocksDetected"`
	DeadlocksPrevented int64    `json:"deadlocksPrevented"`
	Cycle              []string `json:"cycle,omitempty"`
}

const (
	// StatusSafe means the combined allocation+wait graph is acyclic.
	StatusSafe = "SAFE"
	// StatusDeadlock means a cycle exists in committed state.
	StatusDeadlock = "DEADLOCK"

	statusAvailable = "available"
	statusAllocated = "allocated"
)
