package simulation

import (
	"time"
)

// Result captures the final state of a scenario run for reporting.
type Result struct {
	ScenarioName   string                 `json:"scenario_name"`
	Duration       time.Duration          `json:"duration"`
	TotalRequests  uint64                 `json:"total_requests"`
	TotalAllocated uint64                 `json:"total_allocated"`
	TotalWaited    uint64                 `json:"total_waited"`
	TotalPrevented uint64                 `json:"total_prevented"`
	TotalErrors    uint64                 `json:"total_errors"`
	TotalInjected  uint64                 `json:"total_injected"`
	TotalRecovered uint64                 `json:"total_recovered"`
	FinalStatus    string                 `json:"final_status"`
	AgentStats     map[string]*AgentStats `json:"agent_stats"`
	Invariants     []InvariantResult      `json:"invariants"`
	Success        bool                   `json:"success"`
}

type AgentStats struct {
	Requests  uint64 `json:"requests"`
	Allocated uint64 `json:"allocated"`
	Waited    uint64 `json:"waited"`
	Prevented uint64 `json:"prevented"`
	Errors    uint64 `json:"errors"`
}

type InvariantResult struct {
	Metric   string `json:"metric"`
	Scope    string `json:"scope"`
	Expected string `json:"expected"` // e.g. "> 0.95"
	Actual   string `json:"actual"`   // e.g. "0.98"
	Passed   bool   `json:"passed"`
}

// Scenario describes a full simulation: the resource topology, the agent
// population contending over it, optional sabotage (raw wait-edge
// injection) and the invariants the run must satisfy.
type Scenario struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Duration    time.Duration   `json:"duration" yaml:"duration"`
	Seed        int64           `json:"seed" yaml:"seed"` // deterministic seed
	Topology    Topology        `json:"topology" yaml:"topology"`
	Agents      []AgentConfig   `json:"agents" yaml:"agents"`
	Sabotage    *SabotageConfig `json:"sabotage,omitempty" yaml:"sabotage,omitempty"`
	Recovery    *RecoveryConfig `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	Invariants  []Invariant     `json:"invariants,omitempty" yaml:"invariants,omitempty"`
}

type Invariant struct {
	Metric    string  `json:"metric" yaml:"metric"`       // allocation_rate, prevented_rate, error_rate
	Condition string  `json:"condition" yaml:"condition"` // ">", "<", ">=", "<=", "=="
	Value     float64 `json:"value" yaml:"value"`
	Scope     string  `json:"scope" yaml:"scope"` // "global" or an agent group name
}

// Topology lists the resources the scenario contends over. Each agent
// registers its own processes; resources are shared.
type Topology struct {
	Resources []ResourceSpec `json:"resources" yaml:"resources"`
}

type ResourceSpec struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"` // CPU, Disk, ... (default CPU)
}

// AgentConfig describes one group of simulated processes. Each instance
// registers as a process named "<name>-<i>" and loops: request a random
// resource, hold briefly, release everything.
type AgentConfig struct {
	Name     string        `json:"name" yaml:"name"`
	Count    int           `json:"count" yaml:"count"`
	Priority string        `json:"priority" yaml:"priority"` // low, medium, high
	Behavior BehaviorType  `json:"behavior" yaml:"behavior"`
	Rate     int           `json:"rate" yaml:"rate"` // requests per second
	Burst    int           `json:"burst" yaml:"burst"`
	Jitter   time.Duration `json:"jitter" yaml:"jitter"`
	Acquire  int           `json:"acquire" yaml:"acquire"`     // resources to accumulate before releasing (default 1)
	HoldTime time.Duration `json:"hold_time" yaml:"hold_time"` // how long to sit on a full set
}

type BehaviorType string

const (
	BehaviorPeriodic BehaviorType = "periodic"
	BehaviorGreedy   BehaviorType = "greedy"
	BehaviorPoisson  BehaviorType = "poisson"
	BehaviorBursty   BehaviorType = "bursty"
)

// SabotageConfig injects raw wait edges through the daemon's debug
// route, bypassing avoidance, to force deadlocks the recovery loop must
// then clean up.
type SabotageConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// RecoveryConfig runs a janitor loop that periodically detects and
// recovers from deadlocks.
type RecoveryConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
}
