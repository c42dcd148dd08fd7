package engine

import (
	"fmt"
	"strings"

	"github.com/rmax-ai/locklord/pkg/graph"
	"github.com/rmax-ai/locklord/pkg/journal"
)

// Recover breaks an existing deadlock by terminating one victim process
// from the detected cycle and reclaiming its resources. Victim selection
// is deterministic: the cycle process with the lowest priority rank
// (low < medium < high), ties broken by lexicographically smallest id.
//
// Each reclaimed resource is handed to the head of its wait queue through
// the normal FCFS grant path. One call terminates exactly one victim;
// with multiple interlocked cycles the caller re-invokes Recover until
// Detect comes back clean. Keeping each step separate keeps every
// termination observable in the activity log.
func (s *Store) Recover() (RecoveryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle := graph.FindCycle(s.buildGraphLocked())
	if cycle == nil {
		return RecoveryResult{}, ErrNoDeadlock
	}

	victim := s.selectVictimLocked(cycle)
	if victim == nil {
		// A cycle with no process node cannot exist in a bipartite
		// allocation graph.
		return RecoveryResult{}, fmt.Errorf("cycle %s contains no process: %w",
			graph.DescribeCycle(cycle), ErrInvalidState)
	}

	released := s.terminateLocked(victim)
	RecoveryTotal.Inc()
	ProcessGauge.Set(float64(len(s.processes)))

	s.log.Append(journal.SeverityWarning,
		fmt.Sprintf("Recovery: process %s terminated, resources [%s] released",
			victim.id, strings.Join(released, ", ")))

	return RecoveryResult{
		Victim:   victim.id,
		Released: released,
		Message:  fmt.Sprintf("system recovered by terminating %s", victim.id),
	}, nil
}

// selectVictimLocked picks the termination victim among the process nodes
// on the cycle. Must be called with s.mu held.
func (s *Store) selectVictimLocked(cycle []string) *process {
	var victim *process
	// The closing element repeats the first; skip it.
	for _, id := range cycle[:len(cycle)-1] {
		p, ok := s.processes[id]
		if !ok {
			continue
		}
		if victim == nil {
			victim = p
			continue
		}
		if p.priority.rank() < victim.priority.rank() ||
			(p.priority.rank() == victim.priority.rank() && p.id < victim.id) {
			victim = p
		}
	}
	return victim
}

// terminateLocked removes the victim: wait edges first, then held
// resources through the FCFS handoff, then the process itself. Returns
// the ids of the resources it held. Must be called with s.mu held.
func (s *Store) terminateLocked(victim *process) []string {
	for _, rid := range append([]string{}, victim.waitingFor...) {
		r := s.resources[rid]
		r.waitQueue = remove(r.waitQueue, victim.id)
	}
	victim.waitingFor = nil

	released := append([]string{}, victim.held...)
	for _, rid := range released {
		s.releaseLocked(victim, s.resources[rid])
	}

	delete(s.processes, victim.id)
	s.procOrder = remove(s.procOrder, victim.id)
	return released
}
