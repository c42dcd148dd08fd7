package graph

// NodeType represents the semantic type of a node in the allocation graph.
type NodeType string

const (
	NodeProcess  NodeType = "process"
	NodeResource NodeType = "resource"
)

// EdgeType represents the semantic relationship between two nodes.
type EdgeType string

const (
	// EdgeAllocation points from a resource to the process holding it.
	EdgeAllocation EdgeType = "allocation"
	// EdgeRequest points from a process to a resource it is blocked on.
	EdgeRequest EdgeType = "request"
)

// Node represents a vertex in the allocation graph.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
}

// Graph is a point-in-time view of the combined allocation+wait graph.
// It is always derived fresh from the entity store and never mutated in
// place, so node and edge order is the store's insertion order and every
// traversal over it is deterministic.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraph creates an empty allocation graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode appends a node to the graph.
func (g *Graph) AddNode(n Node) {
	g.Nodes = append(g.Nodes, n)
}

// AddEdge appends an edge to the graph.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
