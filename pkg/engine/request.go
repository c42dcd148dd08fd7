package engine

import (
	"fmt"

	"github.com/rmax-ai/locklord/pkg/graph"
	"github.com/rmax-ai/locklord/pkg/journal"
)

// Request asks for a resource on behalf of a process. The outcome is one
// of three committed results, all decided synchronously on the current
// graph state:
//
//   - allocated: the resource was available and is granted immediately.
//   - waiting: the resource is held elsewhere and the wait edge is safe,
//     so the process joins the FCFS queue.
//   - denied/prevented: committing the wait edge would close a cycle. The
//     tentative edge is rolled back and no state changes. This is
//     avoidance, distinct from post-hoc detection.
//
// Redundant requests fail with ErrAlreadyHeld or ErrAlreadyWaiting and
// leave the graph untouched.
func (s *Store) Request(processID, resourceID string) (RequestOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[processID]
	if !ok {
		return RequestOutcome{}, fmt.Errorf("process %s: %w", processID, ErrNotFound)
	}
	r, ok := s.resources[resourceID]
	if !ok {
		return RequestOutcome{}, fmt.Errorf("resource %s: %w", resourceID, ErrNotFound)
	}

	if r.heldBy == p.id {
		return RequestOutcome{}, fmt.Errorf("process %s already holds %s: %w", p.id, r.id, ErrAlreadyHeld)
	}
	if contains(p.waitingFor, r.id) {
		return RequestOutcome{}, fmt.Errorf("process %s already waiting for %s: %w", p.id, r.id, ErrAlreadyWaiting)
	}

	// An available resource has an empty wait queue, so granting it can
	// only add an allocation edge from a source-less node: no cycle risk.
	if r.available() {
		s.grantLocked(p, r)
		RequestTotal.WithLabelValues(string(ResultAllocated)).Inc()
		s.log.Append(journal.SeveritySuccess,
			fmt.Sprintf("Resource %s allocated to %s", r.id, p.id))
		return RequestOutcome{Result: ResultAllocated}, nil
	}

	// Held elsewhere: simulate the wait edge before committing it.
	overlay := []graph.Edge{{From: p.id, To: r.id, Type: graph.EdgeRequest}}
	if cycle := graph.FindCycleWith(s.buildGraphLocked(), overlay); cycle != nil {
		s.prevented++
		RequestTotal.WithLabelValues(string(ResultDenied)).Inc()
		PreventedTotal.Inc()
		desc := graph.DescribeCycle(cycle)
		s.log.Append(journal.SeverityWarning,
			fmt.Sprintf("Request denied: %s -> %s would create cycle %s", p.id, r.id, desc))
		return RequestOutcome{
			Result:    ResultDenied,
			Prevented: true,
			Cycle:     cycle,
			Message:   fmt.Sprintf("request denied - would create cycle %s", desc),
		}, nil
	}

	p.waitingFor = append(p.waitingFor, r.id)
	r.waitQueue = append(r.waitQueue, p.id)
	RequestTotal.WithLabelValues(string(ResultWaiting)).Inc()
	s.log.Append(journal.SeverityInfo,
		fmt.Sprintf("Process %s waiting for %s (held by %s)", p.id, r.id, r.heldBy))
	return RequestOutcome{Result: ResultWaiting, Holder: r.heldBy}, nil
}

// Release gives up a held resource. If other processes are queued, the
// head waiter is granted the resource immediately (FCFS fairness);
// otherwise the resource returns to available.
func (s *Store) Release(processID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, ErrNotFound)
	}
	r, ok := s.resources[resourceID]
	if !ok {
		return fmt.Errorf("resource %s: %w", resourceID, ErrNotFound)
	}
	if r.heldBy != p.id {
		return fmt.Errorf("resource %s is not held by %s: %w", r.id, p.id, ErrNotHeld)
	}

	s.releaseLocked(p, r)
	return nil
}

// InjectWait forces a wait edge into the graph without running avoidance.
// It exists for scenario testing and the debug API: deliberately
// constructing a deadlocked state is the only way to exercise detection
// and recovery end to end.
func (s *Store) InjectWait(processID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, ErrNotFound)
	}
	r, ok := s.resources[resourceID]
	if !ok {
		return fmt.Errorf("resource %s: %w", resourceID, ErrNotFound)
	}
	if r.heldBy == p.id {
		return fmt.Errorf("process %s already holds %s: %w", p.id, r.id, ErrAlreadyHeld)
	}
	if contains(p.waitingFor, r.id) {
		return fmt.Errorf("process %s already waiting for %s: %w", p.id, r.id, ErrAlreadyWaiting)
	}

	p.waitingFor = append(p.waitingFor, r.id)
	r.waitQueue = append(r.waitQueue, p.id)
	s.log.Append(journal.SeverityWarning,
		fmt.Sprintf("Wait edge %s -> %s injected (avoidance bypassed)", p.id, r.id))
	return nil
}

// grantLocked allocates r to p. Must be called with s.mu held and r
// available.
func (s *Store) grantLocked(p *process, r *resource) {
	r.heldBy = p.id
	p.held = append(p.held, r.id)
}

// releaseLocked clears the allocation and hands the resource to the head
// of the wait queue, if any. Must be called with s.mu held.
func (s *Store) releaseLocked(p *process, r *resource) {
	r.heldBy = ""
	p.held = remove(p.held, r.id)

	if len(r.waitQueue) == 0 {
		s.log.Append(journal.SeveritySuccess,
			fmt.Sprintf("Resource %s released by %s and available", r.id, p.id))
		return
	}

	next := r.waitQueue[0]
	r.waitQueue = r.waitQueue[1:]
	waiter := s.processes[next]
	waiter.waitingFor = remove(waiter.waitingFor, r.id)
	s.grantLocked(waiter, r)
	s.log.Append(journal.SeverityInfo,
		fmt.Sprintf("Resource %s released by %s, granted to waiting %s", r.id, p.id, next))
}
