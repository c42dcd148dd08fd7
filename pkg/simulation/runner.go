package simulation

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rmax-ai/locklord/pkg/client"
)

// RunScenario executes a scenario against a running daemon and returns
// the aggregated result. The run is seeded: the same seed against the
// same daemon state replays the same agent decisions.
func RunScenario(s Scenario, apiURL string) Result {
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
	}

	log.Printf("Running Scenario: %s (Seed: %d)", s.Name, s.Seed)

	ctx, cancel := context.WithTimeout(context.Background(), s.Duration)
	defer cancel()

	api := client.NewClient(apiURL)

	res := Result{
		ScenarioName: s.Name,
		Duration:     s.Duration,
		AgentStats:   make(map[string]*AgentStats),
	}

	var statsMutex sync.Mutex
	getAgentStats := func(name string) *AgentStats {
		statsMutex.Lock()
		defer statsMutex.Unlock()
		if _, ok := res.AgentStats[name]; !ok {
			res.AgentStats[name] = &AgentStats{}
		}
		return res.AgentStats[name]
	}

	// Register topology before any agent starts contending.
	resourceIDs := make([]string, 0, len(s.Topology.Resources))
	for _, spec := range s.Topology.Resources {
		if err := api.AddResource(ctx, spec.ID, spec.Type); err != nil {
			log.Printf("Failed to register resource %s: %v", spec.ID, err)
			continue
		}
		resourceIDs = append(resourceIDs, spec.ID)
	}
	if len(resourceIDs) == 0 {
		log.Printf("Scenario %s has no usable resources, aborting", s.Name)
		res.FinalStatus = "NO_RESOURCES"
		return res
	}

	var wg sync.WaitGroup

	// Saboteur: periodically wires a raw wait edge between a random
	// process and a resource it does not hold. This bypasses avoidance,
	// so cycles can form and the janitor has real work.
	if s.Sabotage != nil && s.Sabotage.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(s.Sabotage.Interval)
			defer ticker.Stop()
			rng := rand.New(rand.NewSource(s.Seed + 9999))

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					processes, err := api.Processes(ctx)
					if err != nil || len(processes) == 0 {
						continue
					}
					pid := processes[rng.Intn(len(processes))].ID
					rid := resourceIDs[rng.Intn(len(resourceIDs))]
					if err := api.InjectWait(ctx, pid, rid); err == nil {
						atomic.AddUint64(&res.TotalInjected, 1)
					}
				}
			}
		}()
	}

	// Janitor: detect and recover on a timer.
	if s.Recovery != nil && s.Recovery.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(s.Recovery.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					detect, err := api.Detect(ctx)
					if err != nil || !detect.Deadlock {
						continue
					}
					if _, err := api.Recover(ctx); err == nil {
						atomic.AddUint64(&res.TotalRecovered, 1)
					}
				}
			}
		}()
	}

	for agentIdx, agentCfg := range s.Agents {
		for i := 0; i < agentCfg.Count; i++ {
			wg.Add(1)
			processID := fmt.Sprintf("%s-%d", agentCfg.Name, i)
			agentSeed := s.Seed + int64(agentIdx*1000) + int64(i)
			stats := getAgentStats(agentCfg.Name)

			go func(cfg AgentConfig, pid string, seed int64, st *AgentStats) {
				defer wg.Done()
				runAgent(ctx, api, pid, cfg, resourceIDs, seed, &res, st)
			}(agentCfg, processID, agentSeed, stats)
		}
	}

	wg.Wait()

	// Settle: report the daemon's closing verdict.
	finalCtx, finalCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer finalCancel()
	if status, err := api.Status(finalCtx); err == nil {
		res.FinalStatus = status.Status
	}

	evaluateInvariants(&res, s.Invariants)

	res.Success = true
	for _, inv := range res.Invariants {
		if !inv.Passed {
			res.Success = false
			break
		}
	}

	return res
}

func runAgent(ctx context.Context, api *client.Client, processID string, cfg AgentConfig, resourceIDs []string, seed int64, global *Result, stats *AgentStats) {
	rng := rand.New(rand.NewSource(seed))

	if err := api.AddProcess(ctx, processID, cfg.Priority); err != nil {
		log.Printf("[%s] Failed to register: %v", processID, err)
		return
	}

	acquire := cfg.Acquire
	if acquire <= 0 {
		acquire = 1
	}
	backoff := client.DefaultBackoff()
	var held []string
	attempt := 0

	releaseAll := func() {
		for _, rid := range held {
			// The process may have been terminated by recovery; a
			// conflict here just means the resource moved on already.
			_ = api.Release(ctx, processID, rid)
		}
		held = held[:0]
	}
	defer releaseAll()

	track := func(result client.RequestResult, err error) {
		atomic.AddUint64(&global.TotalRequests, 1)
		atomic.AddUint64(&stats.Requests, 1)
		if err != nil {
			atomic.AddUint64(&global.TotalErrors, 1)
			atomic.AddUint64(&stats.Errors, 1)
			return
		}
		switch {
		case result.Allocated:
			atomic.AddUint64(&global.TotalAllocated, 1)
			atomic.AddUint64(&stats.Allocated, 1)
		case result.Waiting:
			atomic.AddUint64(&global.TotalWaited, 1)
			atomic.AddUint64(&stats.Waited, 1)
		case result.Prevented:
			atomic.AddUint64(&global.TotalPrevented, 1)
			atomic.AddUint64(&stats.Prevented, 1)
		}
	}

	action := func() {
		rid := resourceIDs[rng.Intn(len(resourceIDs))]

		result, err := api.Request(ctx, processID, rid)
		track(result, err)
		if err != nil {
			// Conflicts (already held, already waiting) and a
			// terminated process both land here; drop local state so
			// the loop re-registers nothing and moves on.
			return
		}

		switch {
		case result.Allocated:
			held = append(held, rid)
			attempt = 0
		case result.Prevented:
			// Denied to keep the system safe. Back off, drop what we
			// hold, try again later.
			delay := backoff.Next(attempt)
			attempt++
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			releaseAll()
			return
		case result.Waiting:
			// The engine queues us; nothing to do locally.
			return
		}

		if len(held) >= acquire {
			if cfg.HoldTime > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.HoldTime):
				}
			}
			releaseAll()
		}
	}

	switch cfg.Behavior {
	case BehaviorGreedy:
		for {
			select {
			case <-ctx.Done():
				return
			default:
				action()
			}
		}
	case BehaviorPoisson:
		lambda := float64(cfg.Rate)
		if lambda <= 0 {
			lambda = 1
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				interval := -math.Log(rng.Float64()) / lambda
				time.Sleep(time.Duration(interval * float64(time.Second)))
				action()
			}
		}
	case BehaviorBursty:
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for k := 0; k < cfg.Burst; k++ {
					action()
				}
			}
		}
	case BehaviorPeriodic:
		fallthrough
	default:
		rate := cfg.Rate
		if rate <= 0 {
			rate = 1
		}
		interval := time.Second / time.Duration(rate)
		if interval == 0 {
			interval = time.Millisecond * 10
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cfg.Jitter > 0 {
					time.Sleep(time.Duration(rng.Int63n(int64(cfg.Jitter))))
				}
				action()
			}
		}
	}
}

func evaluateInvariants(res *Result, invariants []Invariant) {
	for _, inv := range invariants {
		var actual float64
		var passed bool

		var stats *AgentStats
		if inv.Scope == "global" || inv.Scope == "" {
			stats = &AgentStats{
				Requests:  atomic.LoadUint64(&res.TotalRequests),
				Allocated: atomic.LoadUint64(&res.TotalAllocated),
				Waited:    atomic.LoadUint64(&res.TotalWaited),
				Prevented: atomic.LoadUint64(&res.TotalPrevented),
				Errors:    atomic.LoadUint64(&res.TotalErrors),
			}
		} else {
			if s, ok := res.AgentStats[inv.Scope]; ok {
				stats = &AgentStats{
					Requests:  atomic.LoadUint64(&s.Requests),
					Allocated: atomic.LoadUint64(&s.Allocated),
					Waited:    atomic.LoadUint64(&s.Waited),
					Prevented: atomic.LoadUint64(&s.Prevented),
					Errors:    atomic.LoadUint64(&s.Errors),
				}
			} else {
				res.Invariants = append(res.Invariants, InvariantResult{
					Metric: inv.Metric, Scope: inv.Scope, Expected: fmt.Sprintf("%s %.2f", inv.Condition, inv.Value), Actual: "N/A", Passed: false,
				})
				continue
			}
		}

		if stats.Requests == 0 {
			actual = 0
		} else {
			switch inv.Metric {
			case "allocation_rate":
				actual = float64(stats.Allocated) / float64(stats.Requests)
			case "prevented_rate":
				actual = float64(stats.Prevented) / float64(stats.Requests)
			case "error_rate":
				actual = float64(stats.Errors) / float64(stats.Requests)
			default:
				actual = 0
			}
		}

		switch inv.Condition {
		case ">":
			passed = actual > inv.Value
		case ">=":
			passed = actual >= inv.Value
		case "<":
			passed = actual < inv.Value
		case "<=":
			passed = actual <= inv.Value
		case "==":
			passed = math.Abs(actual-inv.Value) < 0.0001
		}

		res.Invariants = append(res.Invariants, InvariantResult{
			Metric:   inv.Metric,
			Scope:    inv.Scope,
			Expected: fmt.Sprintf("%s %.2f", inv.Condition, inv.Value),
			Actual:   fmt.Sprintf("%.4f", actual),
			Passed:   passed,
		})
	}
}
