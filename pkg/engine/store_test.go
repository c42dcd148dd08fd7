package engine

import (
	"errors"
	"testing"

	"github.com/rmax-ai/locklord/pkg/journal"
)

func newTestStore() *Store {
	return NewStore(journal.NewLog(100))
}

func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkInvariantsLocked(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestAddProcess_Duplicate(t *testing.T) {
	s := newTestStore()

	if err := s.AddProcess("P1", PriorityMedium); err != nil {
		t.Fatalf("AddProcess failed: %v", err)
	}
	err := s.AddProcess("P1", PriorityHigh)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestAddResource_Duplicate(t *testing.T) {
	s := newTestStore()

	if err := s.AddResource("R1", "CPU"); err != nil {
		t.Fatalf("AddResource failed: %v", err)
	}
	err := s.AddResource("R1", "Disk")
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestAddResource_DefaultType(t *testing.T) {
	s := newTestStore()

	if err := s.AddResource("R1", ""); err != nil {
		t.Fatalf("AddResource failed: %v", err)
	}
	views := s.Resources()
	if len(views) != 1 || views[0].Type != "CPU" {
		t.Errorf("expected default type CPU, got %+v", views)
	}
}

func TestSnapshots_InsertionOrder(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"P3", "P1", "P2"} {
		if err := s.AddProcess(id, PriorityMedium); err != nil {
			t.Fatalf("AddProcess %s: %v", id, err)
		}
	}

	views := s.Processes()
	want := []string{"P3", "P1", "P2"}
	for i, v := range views {
		if v.ID != want[i] {
			t.Errorf("snapshot order: got %s at %d, want %s", v.ID, i, want[i])
		}
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")
	s.Detect()

	s.Reset()

	if len(s.Processes()) != 0 || len(s.Resources()) != 0 {
		t.Errorf("reset left entities behind")
	}
	st := s.Status()
	if st.DeadlocksDetected != 0 || st.DeadlocksPrevented != 0 {
		t.Errorf("reset left counters: %+v", st)
	}
	// The reset itself is logged, so the log holds exactly one entry.
	if got := s.Log().Len(); got != 1 {
		t.Errorf("expected 1 log entry after reset, got %d", got)
	}
	assertInvariants(t, s)
}

func TestGraph_DerivedEdges(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R1") // queued behind P1

	g := s.Graph()
	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected allocation + request edge, got %d", len(g.Edges))
	}
	if g.Edges[0].From != "R1" || g.Edges[0].To != "P1" {
		t.Errorf("unexpected allocation edge %+v", g.Edges[0])
	}
	if g.Edges[1].From != "P2" || g.Edges[1].To != "R1" {
		t.Errorf("unexpected request edge %+v", g.Edges[1])
	}
}

// mustAdd registers processes (medium priority) and resources or fails the
// test.
func mustAdd(t *testing.T, s *Store, pids, rids []string) {
	t.Helper()
	for _, id := range pids {
		if err := s.AddProcess(id, PriorityMedium); err != nil {
			t.Fatalf("AddProcess %s: %v", id, err)
		}
	}
	for _, id := range rids {
		if err := s.AddResource(id, "CPU"); err != nil {
			t.Fatalf("AddResource %s: %v", id, err)
		}
	}
}

// mustRequest issues a request and fails the test on error.
func mustRequest(t *testing.T, s *Store, pid, rid string) RequestOutcome {
	t.Helper()
	out, err := s.Request(pid, rid)
	if err != nil {
		t.Fatalf("Request %s -> %s: %v", pid, rid, err)
	}
	return out
}
