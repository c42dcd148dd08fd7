package engine

import (
	"errors"
	"testing"

	"github.com/rmax-ai/locklord/pkg/graph"
)

func TestRequest_GrantWhenAvailable(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1"}, []string{"R1"})

	out := mustRequest(t, s, "P1", "R1")
	if out.Result != ResultAllocated {
		t.Fatalf("expected allocated, got %s", out.Result)
	}

	res := s.Resources()[0]
	if res.Status != "allocated" || res.HeldBy != "P1" {
		t.Errorf("resource state after grant: %+v", res)
	}
	proc := s.Processes()[0]
	if len(proc.Held) != 1 || proc.Held[0] != "R1" {
		t.Errorf("process held set after grant: %+v", proc)
	}
	assertInvariants(t, s)
}

func TestRequest_UnknownIDs(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1"}, []string{"R1"})

	if _, err := s.Request("P9", "R1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown process: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Request("P1", "R9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown resource: expected ErrNotFound, got %v", err)
	}
}

func TestRequest_AlreadyHeldLeavesGraphUnchanged(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")

	before := len(s.Graph().Edges)
	_, err := s.Request("P1", "R1")
	if !errors.Is(err, ErrAlreadyHeld) {
		t.Fatalf("expected ErrAlreadyHeld, got %v", err)
	}
	if after := len(s.Graph().Edges); after != before {
		t.Errorf("graph changed on rejected request: %d -> %d edges", before, after)
	}
	assertInvariants(t, s)
}

func TestRequest_AlreadyWaiting(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R1")

	if _, err := s.Request("P2", "R1"); !errors.Is(err, ErrAlreadyWaiting) {
		t.Errorf("expected ErrAlreadyWaiting, got %v", err)
	}
	assertInvariants(t, s)
}

func TestRequest_WaitReportsHolder(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")

	out := mustRequest(t, s, "P2", "R1")
	if out.Result != ResultWaiting {
		t.Fatalf("expected waiting, got %s", out.Result)
	}
	if out.Holder != "P1" {
		t.Errorf("expected holder P1, got %s", out.Holder)
	}
	assertInvariants(t, s)
}

// The canonical avoidance scenario: P1 holds R1, P2 holds R2, P1 queues on
// R2, then P2's request for R1 must be denied with the would-be cycle.
func TestRequest_AvoidanceDeniesClosingEdge(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1", "R2"})

	if out := mustRequest(t, s, "P1", "R1"); out.Result != ResultAllocated {
		t.Fatalf("P1->R1: expected allocated, got %s", out.Result)
	}
	if out := mustRequest(t, s, "P2", "R2"); out.Result != ResultAllocated {
		t.Fatalf("P2->R2: expected allocated, got %s", out.Result)
	}
	if out := mustRequest(t, s, "P1", "R2"); out.Result != ResultWaiting || out.Holder != "P2" {
		t.Fatalf("P1->R2: expected waiting on P2, got %+v", out)
	}

	out := mustRequest(t, s, "P2", "R1")
	if out.Result != ResultDenied || !out.Prevented {
		t.Fatalf("P2->R1: expected denied/prevented, got %+v", out)
	}
	if len(out.Cycle) == 0 {
		t.Fatal("denial should carry the would-be cycle")
	}

	// Safety property: forcing the denied edge must produce a cycle...
	g := s.Graph()
	forced := []graph.Edge{{From: "P2", To: "R1", Type: graph.EdgeRequest}}
	if !graph.HasCycleWith(g, forced) {
		t.Error("forcing the denied edge should cycle")
	}
	// ...and the committed state must have none.
	if cycle := graph.FindCycle(g); cycle != nil {
		t.Errorf("denied request leaked state: cycle %v", cycle)
	}

	// Rollback check: P2 must not be queued anywhere for R1.
	for _, r := range s.Resources() {
		if r.ID == "R1" {
			for _, w := range r.WaitQueue {
				if w == "P2" {
					t.Error("denied request left P2 in R1 wait queue")
				}
			}
		}
	}
	assertInvariants(t, s)
}

func TestRelease_RoundTrip(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")

	if err := s.Release("P1", "R1"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	res := s.Resources()[0]
	if res.Status != "available" || res.HeldBy != "" {
		t.Errorf("release round-trip: %+v", res)
	}
	assertInvariants(t, s)
}

func TestRelease_FCFSHandoff(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2", "P3"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R1")
	mustRequest(t, s, "P3", "R1")

	if err := s.Release("P1", "R1"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	res := s.Resources()[0]
	if res.HeldBy != "P2" {
		t.Errorf("expected FCFS grant to P2, got %s", res.HeldBy)
	}
	if len(res.WaitQueue) != 1 || res.WaitQueue[0] != "P3" {
		t.Errorf("expected P3 still queued, got %v", res.WaitQueue)
	}
	assertInvariants(t, s)
}

func TestRelease_NotHeld(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")

	if err := s.Release("P2", "R1"); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld, got %v", err)
	}
}
