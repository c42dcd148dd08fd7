package engine

import (
	"fmt"

	"github.com/rmax-ai/locklord/pkg/graph"
	"github.com/rmax-ai/locklord/pkg/journal"
)

// Detect runs cycle detection over the live graph. A cycle is the
// definition of deadlock. Detect is a pure read of the entity tables: it
// never recovers or mutates allocations, only bumps the detection counter
// and logs the result.
func (s *Store) Detect() DetectResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle := graph.FindCycle(s.buildGraphLocked())
	if cycle == nil {
		s.log.Append(journal.SeveritySuccess, "No deadlock detected - system is safe")
		return DetectResult{Deadlock: false, Message: "system is in safe state"}
	}

	s.detected++
	DetectedTotal.Inc()
	desc := graph.DescribeCycle(cycle)
	s.log.Append(journal.SeverityError,
		fmt.Sprintf("DEADLOCK DETECTED: cycle found - %s", desc))
	return DetectResult{
		Deadlock: true,
		Cycle:    cycle,
		Message:  "deadlock detected in system",
	}
}

// Status reports the live system status. Unlike Detect it does not log or
// count: it is the quiet read behind dashboards polling every second.
func (s *Store) Status() SystemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle := graph.FindCycle(s.buildGraphLocked())
	status := StatusSafe
	if cycle != nil {
		status = StatusDeadlock
	}

	return SystemStatus{
		Status:             status,
		ActiveProcesses:    len(s.processes),
		TotalResources:     len(s.resources),
		DeadlocksDetected:  s.detected,
		DeadlocksPrevented: s.prevented,
		Cycle:              cycle,
	}
}
