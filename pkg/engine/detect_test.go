package engine

import (
	"reflect"
	"testing"
)

// buildDeadlock constructs the classic two-process cycle by bypassing
// avoidance with an injected wait edge: P1 holds R1 and waits for R2, P2
// holds R2 and (injected) waits for R1.
func buildDeadlock(t *testing.T, s *Store) {
	t.Helper()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1", "R2"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R2")
	mustRequest(t, s, "P1", "R2")
	if err := s.InjectWait("P2", "R1"); err != nil {
		t.Fatalf("InjectWait failed: %v", err)
	}
}

func TestDetect_SafeBeforeClosingEdge(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1", "R2"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R2")
	mustRequest(t, s, "P1", "R2") // waiting, no cycle yet

	res := s.Detect()
	if res.Deadlock {
		t.Errorf("expected no deadlock, got cycle %v", res.Cycle)
	}
}

func TestDetect_FindsInjectedCycle(t *testing.T) {
	s := newTestStore()
	buildDeadlock(t, s)

	res := s.Detect()
	if !res.Deadlock {
		t.Fatal("expected deadlock")
	}

	// Cycle must contain all four nodes of the ring.
	for _, want := range []string{"P1", "P2", "R1", "R2"} {
		found := false
		for _, id := range res.Cycle {
			if id == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("cycle %v missing node %s", res.Cycle, want)
		}
	}

	st := s.Status()
	if st.Status != StatusDeadlock {
		t.Errorf("expected DEADLOCK status, got %s", st.Status)
	}
	if st.DeadlocksDetected != 1 {
		t.Errorf("expected 1 detection counted, got %d", st.DeadlocksDetected)
	}
}

func TestDetect_IdempotentWithoutMutation(t *testing.T) {
	s := newTestStore()
	buildDeadlock(t, s)

	first := s.Detect()
	second := s.Detect()

	if first.Deadlock != second.Deadlock || !reflect.DeepEqual(first.Cycle, second.Cycle) {
		t.Errorf("detect not idempotent: %+v vs %+v", first, second)
	}
}

func TestStatus_CountsPrevented(t *testing.T) {
	s := newTestStore()
	mustAdd(t, s, []string{"P1", "P2"}, []string{"R1", "R2"})
	mustRequest(t, s, "P1", "R1")
	mustRequest(t, s, "P2", "R2")
	mustRequest(t, s, "P1", "R2")
	out := mustRequest(t, s, "P2", "R1")
	if out.Result != ResultDenied {
		t.Fatalf("expected denial, got %s", out.Result)
	}

	st := s.Status()
	if st.Status != StatusSafe {
		t.Errorf("avoided state should be SAFE, got %s", st.Status)
	}
	if st.DeadlocksPrevented != 1 {
		t.Errorf("expected 1 prevention counted, got %d", st.DeadlocksPrevented)
	}
}
