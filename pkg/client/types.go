package client

import "fmt"

// Process mirrors the daemon's process snapshot.
type Process struct {
	ID         string   `json:"id"`
	Priority   string   `json:"priority"`
	Held       []string `json:"heldResources"`
	WaitingFor []string `json:"waitingFor"`
}

// Resource mirrors the daemon's resource snapshot.
type Resource struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	HeldBy    string   `json:"heldBy,omitempty"`
	WaitQueue []string `json:"waitingProcesses"`
}

// RequestResult is the decision for a resource request.
type RequestResult struct {
	Success   bool     `json:"success"`
	Allocated bool     `json:"allocated"`
	Waiting   bool     `json:"waiting"`
	Holder    string   `json:"holder"`
	Prevented bool     `json:"prevented"`
	Cycle     []string `json:"cycle"`
	Message   string   `json:"message"`
}

// DetectResult reports whether the committed graph holds a cycle.
type DetectResult struct {
	Deadlock bool     `json:"deadlock"`
	Cycle    []string `json:"cycle"`
	Message  string   `json:"message"`
}

// Prediction names a process/resource pair one request away from deadlock.
type Prediction struct {
	Process  string `json:"process"`
	Resource string `json:"resource"`
	Risk     string `json:"risk"`
}

// PredictResult is the full prediction report.
type PredictResult struct {
	Predictions []Prediction `json:"predictions"`
	RiskLevel   string       `json:"riskLevel"`
}

// RecoveryResult reports a recovery action.
type RecoveryResult struct {
	Success  bool     `json:"success"`
	Victim   string   `json:"victim"`
	Released []string `json:"released"`
	Message  string   `json:"message"`
}

// Status is the daemon's live status snapshot.
type Status struct {
	Status             string   `json:"status"`
	ActiveProcesses    int      `json:"activeProcesses"`
	TotalResources     int      `json:"totalResources"`
	DeadlocksDetected  int64    `json:"deadlocksDetected"`
	DeadlocksPrevented int64    `json:"deadlocksPrevented"`
	Cycle              []string `json:"cycle"`
}

// LogEntry is one activity log line.
type LogEntry struct {
	Seq      int64  `json:"seq"`
	Time     string `json:"time"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// GraphNode is a node of the allocation graph.
type GraphNode struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// GraphEdge is a directed edge of the allocation graph.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is the daemon's derived allocation graph.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// APIError carries the HTTP status and error body of a failed call, so
// callers can distinguish conflicts (already held, no deadlock) from
// missing entities.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}
