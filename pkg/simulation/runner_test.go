package simulation

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rmax-ai/locklord/pkg/api"
	"github.com/rmax-ai/locklord/pkg/engine"
	"github.com/rmax-ai/locklord/pkg/journal"
)

func newTestDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	store := engine.NewStore(journal.NewLog(journal.DefaultCapacity))
	srv := api.NewServer(store, ":0", true)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRunScenario_ContentionStaysSafe(t *testing.T) {
	ts := newTestDaemon(t)

	s := Scenario{
		Name:     "contention",
		Duration: 500 * time.Millisecond,
		Seed:     42,
		Topology: Topology{Resources: []ResourceSpec{
			{ID: "R1", Type: "CPU"},
			{ID: "R2", Type: "Disk"},
			{ID: "R3", Type: "CPU"},
		}},
		Agents: []AgentConfig{
			{Name: "worker", Count: 3, Priority: "medium", Behavior: BehaviorPeriodic, Rate: 50, Acquire: 2},
		},
		// Redundant requests (already held, already waiting) surface as
		// errors by design, so the bound is loose.
		Invariants: []Invariant{
			{Metric: "error_rate", Condition: "<", Value: 0.95, Scope: "global"},
			{Metric: "allocation_rate", Condition: ">", Value: 0, Scope: "worker"},
		},
	}

	res := RunScenario(s, ts.URL)

	if res.TotalRequests == 0 {
		t.Fatal("expected agents to issue requests")
	}
	if res.FinalStatus != "SAFE" {
		t.Errorf("avoidance should keep the run safe, got %q", res.FinalStatus)
	}
	if !res.Success {
		t.Errorf("invariants failed: %+v", res.Invariants)
	}
	if _, ok := res.AgentStats["worker"]; !ok {
		t.Errorf("missing stats for worker group: %+v", res.AgentStats)
	}
}

func TestRunScenario_SabotageTriggersRecovery(t *testing.T) {
	ts := newTestDaemon(t)

	s := Scenario{
		Name:     "sabotage",
		Duration: time.Second,
		Seed:     7,
		Topology: Topology{Resources: []ResourceSpec{
			{ID: "R1"}, {ID: "R2"},
		}},
		Agents: []AgentConfig{
			{Name: "hog", Count: 2, Priority: "low", Behavior: BehaviorPeriodic, Rate: 20, Acquire: 2, HoldTime: 100 * time.Millisecond},
		},
		Sabotage: &SabotageConfig{Enabled: true, Interval: 50 * time.Millisecond},
		Recovery: &RecoveryConfig{Enabled: true, Interval: 50 * time.Millisecond},
	}

	res := RunScenario(s, ts.URL)

	if res.TotalInjected == 0 {
		t.Error("saboteur never injected a wait edge")
	}
	// Recovery count depends on whether the injected edges closed a
	// cycle; the run itself must still finish and report a verdict.
	if res.FinalStatus == "" {
		t.Error("missing final status")
	}
}

func TestRunScenario_NoResources(t *testing.T) {
	ts := newTestDaemon(t)

	res := RunScenario(Scenario{Name: "empty", Duration: 100 * time.Millisecond, Seed: 1}, ts.URL)
	if res.FinalStatus != "NO_RESOURCES" {
		t.Errorf("expected NO_RESOURCES, got %q", res.FinalStatus)
	}
}

func TestEvaluateInvariants_UnknownScope(t *testing.T) {
	res := Result{AgentStats: map[string]*AgentStats{}}
	evaluateInvariants(&res, []Invariant{
		{Metric: "error_rate", Condition: "<", Value: 0.1, Scope: "ghost"},
	})
	if len(res.Invariants) != 1 || res.Invariants[0].Passed {
		t.Errorf("unknown scope must fail: %+v", res.Invariants)
	}
}

func TestEvaluateInvariants_Rates(t *testing.T) {
	res := Result{
		TotalRequests:  100,
		TotalAllocated: 80,
		TotalPrevented: 5,
		AgentStats:     map[string]*AgentStats{},
	}
	evaluateInvariants(&res, []Invariant{
		{Metric: "allocation_rate", Condition: ">=", Value: 0.8},
		{Metric: "prevented_rate", Condition: "<", Value: 0.1},
	})
	for _, inv := range res.Invariants {
		if !inv.Passed {
			t.Errorf("expected pass: %+v", inv)
		}
	}
}
