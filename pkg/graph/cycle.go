package graph

import "strings"

// FindCycle searches the combined allocation+wait graph for a directed
// cycle. It returns the first cycle discovered as an ordered node sequence
// closed with the starting node repeated (e.g. P1 -> R2 -> P2 -> R1 -> P1),
// or nil if the graph is acyclic.
//
// The search is a depth-first traversal with an explicit on-stack set.
// Roots are visited in node insertion order and neighbors in edge insertion
// order, so the result is deterministic for a given graph.
func FindCycle(g *Graph) []string {
	return FindCycleWith(g, nil)
}

// FindCycleWith runs the same search as FindCycle but overlays the given
// hypothetical edges on top of the graph without mutating it. Callers use
// this to answer "would committing this request create a deadlock" before
// any real state changes.
func FindCycleWith(g *Graph, overlay []Edge) []string {
	adj := buildAdjacency(g, overlay)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, n := range g.Nodes {
		// Only processes can open a hold-and-wait chain, but starting
		// from resources too costs nothing and keeps the search generic.
		if visited[n.ID] {
			continue
		}
		if cycle := dfs(n.ID, adj, visited, onStack, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

// HasCycleWith reports whether overlaying the given edges produces a cycle.
func HasCycleWith(g *Graph, overlay []Edge) bool {
	return FindCycleWith(g, overlay) != nil
}

// DescribeCycle renders a cycle as the arrow-joined form used in log
// messages and denial payloads.
func DescribeCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}

func buildAdjacency(g *Graph, overlay []Edge) map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for _, e := range overlay {
		adj[e.From] = append(adj[e.From], e.To)
	}
	return adj
}

func dfs(node string, adj map[string][]string, visited, onStack map[string]bool, path []string) []string {
	visited[node] = true
	onStack[node] = true
	path = append(path, node)

	for _, next := range adj[node] {
		if !visited[next] {
			if cycle := dfs(next, adj, visited, onStack, path); cycle != nil {
				return cycle
			}
		} else if onStack[next] {
			// Back-edge: the cycle is the path suffix starting at next,
			// closed by repeating next.
			for i, id := range path {
				if id == next {
					cycle := make([]string, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, next)
					return cycle
				}
			}
		}
	}

	onStack[node] = false
	return nil
}
