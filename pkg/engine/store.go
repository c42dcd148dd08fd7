package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rmax-ai/locklord/pkg/graph"
	"github.com/rmax-ai/locklord/pkg/journal"
)

// Store owns all mutable engine state: the process and resource tables,
// the avoidance/detection counters, and the activity log. Every operation
// runs under a single mutex so detection and prediction always observe a
// consistent snapshot; no caller ever sees a half-applied mutation.
//
// The allocation graph is never stored. It is derived from the tables on
// demand, which keeps exactly one source of truth for edges.
type Store struct {
	mu sync.Mutex

	processes map[string]*process
	resources map[string]*resource

	// Insertion order of ids. All traversal and iteration follows these,
	// which makes detection, prediction and victim selection deterministic.
	procOrder []string
	resOrder  []string

	detected  int64
	prevented int64

	log *journal.Log
}

// NewStore creates an empty store writing activity to the given log.
func NewStore(log *journal.Log) *Store {
	if log == nil {
		log = journal.NewLog(journal.DefaultCapacity)
	}
	return &Store{
		processes: make(map[string]*process),
		resources: make(map[string]*resource),
		log:       log,
	}
}

// Log exposes the activity log for read-only consumers.
func (s *Store) Log() *journal.Log {
	return s.log
}

// AddProcess registers a new process with empty held and waiting sets.
func (s *Store) AddProcess(id string, priority Priority) error {
	if id == "" {
		return fmt.Errorf("process id is empty: %w", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[id]; exists {
		return fmt.Errorf("process %s: %w", id, ErrDuplicateID)
	}

	s.processes[id] = &process{
		id:        id,
		priority:  priority,
		createdAt: time.Now(),
	}
	s.procOrder = append(s.procOrder, id)
	ProcessGauge.Set(float64(len(s.processes)))

	s.log.Append(journal.SeveritySuccess,
		fmt.Sprintf("Process %s added with %s priority", id, priority))
	return nil
}

// AddResource registers a new available resource with an empty wait queue.
func (s *Store) AddResource(id, rtype string) error {
	if id == "" {
		return fmt.Errorf("resource id is empty: %w", ErrNotFound)
	}
	if rtype == "" {
		rtype = "CPU"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[id]; exists {
		return fmt.Errorf("resource %s: %w", id, ErrDuplicateID)
	}

	s.resources[id] = &resource{
		id:        id,
		rtype:     rtype,
		createdAt: time.Now(),
	}
	s.resOrder = append(s.resOrder, id)
	ResourceGauge.Set(float64(len(s.resources)))

	s.log.Append(journal.SeveritySuccess,
		fmt.Sprintf("Resource %s (%s) added", id, rtype))
	return nil
}

// Reset returns the store to its empty initial state, clearing entities,
// counters and the in-memory activity log.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processes = make(map[string]*process)
	s.resources = make(map[string]*resource)
	s.procOrder = nil
	s.resOrder = nil
	s.detected = 0
	s.prevented = 0
	s.log.Reset()

	ProcessGauge.Set(0)
	ResourceGauge.Set(0)

	s.log.Append(journal.SeverityInfo, "System reset successfully")
}

// Processes returns read-only snapshots in insertion order.
func (s *Store) Processes() []ProcessView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ProcessView, 0, len(s.procOrder))
	for _, id := range s.procOrder {
		p := s.processes[id]
		views = append(views, ProcessView{
			ID:         p.id,
			Priority:   p.priority,
			Held:       append([]string{}, p.held...),
			WaitingFor: append([]string{}, p.waitingFor...),
		})
	}
	return views
}

// Resources returns read-only snapshots in insertion order.
func (s *Store) Resources() []ResourceView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ResourceView, 0, len(s.resOrder))
	for _, id := range s.resOrder {
		r := s.resources[id]
		status := statusAvailable
		if !r.available() {
			status = statusAllocated
		}
		views = append(views, ResourceView{
			ID:        r.id,
			Type:      r.rtype,
			Status:    status,
			HeldBy:    r.heldBy,
			WaitQueue: append([]string{}, r.waitQueue...),
		})
	}
	return views
}

// Graph derives the current allocation graph under the store lock.
func (s *Store) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildGraphLocked()
}

// buildGraphLocked derives the allocation+wait graph from the entity
// tables. Must be called with s.mu held.
func (s *Store) buildGraphLocked() *graph.Graph {
	g := graph.NewGraph()

	for _, id := range s.procOrder {
		p := s.processes[id]
		g.AddNode(graph.Node{
			ID:         p.id,
			Type:       graph.NodeProcess,
			Properties: map[string]string{"priority": string(p.priority)},
		})
	}
	for _, id := range s.resOrder {
		r := s.resources[id]
		g.AddNode(graph.Node{
			ID:         r.id,
			Type:       graph.NodeResource,
			Properties: map[string]string{"resourceType": r.rtype},
		})
	}

	for _, id := range s.resOrder {
		r := s.resources[id]
		if r.heldBy != "" {
			g.AddEdge(graph.Edge{From: r.id, To: r.heldBy, Type: graph.EdgeAllocation})
		}
	}
	for _, id := range s.procOrder {
		p := s.processes[id]
		for _, rid := range p.waitingFor {
			g.AddEdge(graph.Edge{From: p.id, To: rid, Type: graph.EdgeRequest})
		}
	}

	return g
}

// checkInvariantsLocked verifies the cross-entity consistency rules. It is
// exercised by tests after every operation; a non-nil return means a bug.
// Must be called with s.mu held.
func (s *Store) checkInvariantsLocked() error {
	for _, id := range s.resOrder {
		r := s.resources[id]
		if r.heldBy != "" {
			holder, ok := s.processes[r.heldBy]
			if !ok {
				return fmt.Errorf("resource %s held by unknown process %s: %w", r.id, r.heldBy, ErrInvalidState)
			}
			if !contains(holder.held, r.id) {
				return fmt.Errorf("resource %s holder %s missing back-reference: %w", r.id, r.heldBy, ErrInvalidState)
			}
			if contains(r.waitQueue, r.heldBy) {
				return fmt.Errorf("resource %s wait queue contains its holder %s: %w", r.id, r.heldBy, ErrInvalidState)
			}
		} else if len(r.waitQueue) > 0 {
			return fmt.Errorf("available resource %s has non-empty wait queue: %w", r.id, ErrInvalidState)
		}
		for _, pid := range r.waitQueue {
			waiter, ok := s.processes[pid]
			if !ok {
				return fmt.Errorf("resource %s wait queue references unknown process %s: %w", r.id, pid, ErrInvalidState)
			}
			if !contains(waiter.waitingFor, r.id) {
				return fmt.Errorf("process %s missing wait edge to %s: %w", pid, r.id, ErrInvalidState)
			}
		}
	}

	for _, id := range s.procOrder {
		p := s.processes[id]
		for _, rid := range p.held {
			r, ok := s.resources[rid]
			if !ok {
				return fmt.Errorf("process %s holds unknown resource %s: %w", p.id, rid, ErrInvalidState)
			}
			if r.heldBy != p.id {
				return fmt.Errorf("process %s claims %s held by %s: %w", p.id, rid, r.heldBy, ErrInvalidState)
			}
		}
		for _, rid := range p.waitingFor {
			r, ok := s.resources[rid]
			if !ok {
				return fmt.Errorf("process %s waits for unknown resource %s: %w", p.id, rid, ErrInvalidState)
			}
			if contains(p.held, rid) {
				return fmt.Errorf("process %s both holds and waits for %s: %w", p.id, rid, ErrInvalidState)
			}
			if !contains(r.waitQueue, p.id) {
				return fmt.Errorf("resource %s missing waiter %s: %w", rid, p.id, ErrInvalidState)
			}
		}
	}

	return nil
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
