package engine

import (
	"fmt"

	"github.com/rmax-ai/locklord/pkg/graph"
	"github.com/rmax-ai/locklord/pkg/journal"
)

// shortCycleLen is the closed-cycle length of a direct mutual
// hold-and-wait (P -> R -> P' -> R' -> P). Hypothetical cycles at or
// below this length are graded high risk; longer transitive chains are
// medium.
const shortCycleLen = 5

// Predict runs what-if analysis over every (process, resource) pair not
// currently linked by a hold or a wait. Each pair's hypothetical request
// edge is overlaid on a derived copy of the graph and run through the
// cycle detector; real state is never touched. Pairs are visited in
// insertion order, so the output is deterministic.
func (s *Store) Predict() []Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.buildGraphLocked()
	predictions := make([]Prediction, 0)

	for _, pid := range s.procOrder {
		p := s.processes[pid]
		for _, rid := range s.resOrder {
			r := s.resources[rid]
			if r.heldBy == pid || contains(p.waitingFor, rid) {
				continue
			}

			overlay := []graph.Edge{{From: pid, To: rid, Type: graph.EdgeRequest}}
			cycle := graph.FindCycleWith(g, overlay)
			if cycle == nil {
				continue
			}

			risk := RiskMedium
			if len(cycle) <= shortCycleLen {
				risk = RiskHigh
			}
			predictions = append(predictions, Prediction{
				Process:  pid,
				Resource: rid,
				Risk:     risk,
			})
		}
	}

	if len(predictions) > 0 {
		s.log.Append(journal.SeverityWarning,
			fmt.Sprintf("Prediction: %d potential deadlock scenarios", len(predictions)))
	} else {
		s.log.Append(journal.SeveritySuccess, "Prediction: no deadlock risks detected")
	}

	return predictions
}
