package graph

// Node is a provider entity in the referral graph. The identifier is the
// stable external key (NPI); all descriptive columns live in Attrs.
type Node struct {
	ID    string
	Attrs Attributes
}

// Edge is a directed referral between two nodes.
type Edge struct {
	From     string
	To       string
	Weight   float64
	Category Category
}

type edgeKey struct {
	from string
	to   string
}

// Graph is the in-memory provider referral graph. Nodes and edges enumerate
// in insertion order so that all exports are deterministic.
//
// Not safe for concurrent use; extraction runs are strictly sequential.
type Graph struct {
	directed  bool
	nodes     map[string]*Node
	nodeOrder []string
	edgeIdx   map[edgeKey]int
	edges     []Edge
}

// New creates an empty graph. Directed is the normal mode for referral
// data; undirected collapses each unordered endpoint pair to one edge.
func New(directed bool) *Graph {
	return &Graph{
		directed: directed,
		nodes:    make(map[string]*Node),
		edgeIdx:  make(map[edgeKey]int),
	}
}

// Directed reports whether the graph is directed.
func (g *Graph) Directed() bool {
	return g.directed
}

// AddNode inserts a node, or replaces the attribute set of an existing node
// with the same identifier. Replacement keeps the node's original position
// in enumeration order. Attributes are replaced, never merged: a node is
// hydrated from exactly one detail row per run.
func (g *Graph) AddNode(id string, attrs Attributes) {
	if n, ok := g.nodes[id]; ok {
		n.Attrs = attrs
		return
	}
	g.nodes[id] = &Node{ID: id, Attrs: attrs}
	g.nodeOrder = append(g.nodeOrder, id)
}

// AddEdge inserts a directed edge. Both endpoints must already be present;
// referencing an unknown node is a hard error because edges are only ever
// added after all node hydration has completed. Re-adding an edge with the
// same ordered endpoint pair replaces its weight and category
// (last-write-wins), keeping the original enumeration position.
func (g *Graph) AddEdge(from, to string, weight float64, category Category) error {
	if _, ok := g.nodes[from]; !ok {
		return &GraphError{Op: "AddEdge", From: from, To: to, Cause: ErrEndpointMissing}
	}
	if _, ok := g.nodes[to]; !ok {
		return &GraphError{Op: "AddEdge", From: from, To: to, Cause: ErrEndpointMissing}
	}

	key := edgeKey{from: from, to: to}
	if !g.directed && to < from {
		key = edgeKey{from: to, to: from}
	}

	if i, ok := g.edgeIdx[key]; ok {
		g.edges[i] = Edge{From: from, To: to, Weight: weight, Category: category}
		return nil
	}
	g.edgeIdx[key] = len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, Weight: weight, Category: category})
	return nil
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &GraphError{Op: "Node", From: id, Cause: ErrNodeNotFound}
	}
	return n, nil
}

// HasNode reports whether a node with the given identifier exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
