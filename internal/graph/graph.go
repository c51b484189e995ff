// Package graph assembles the weighted symbol reference graph and ranks
// symbols by centrality.
package graph

// EdgeKind classifies a reference edge.
type EdgeKind int

const (
	EdgeUses EdgeKind = iota
	EdgeCalls
	EdgeInherits
	EdgeImplements
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeUses:
		return "uses"
	case EdgeCalls:
		return "calls"
	case EdgeInherits:
		return "inherits"
	case EdgeImplements:
		return "implements"
	}
	return "unknown"
}

// Edge is a directed reference between two symbols, addressed by symbol
// id. Multiplicity counts the occurrences folded into the edge and acts
// as its weight.
type Edge struct {
	Source       int
	Target       int
	Kind         EdgeKind
	Multiplicity int
}

// Graph is a sparse directed reference graph over a fixed set of n
// symbols. Edges address symbols by id only; the graph never holds
// symbol data itself.
type Graph struct {
	n      int
	edges  []Edge
	outIdx [][]int
	inIdx  [][]int
}

// New builds a graph over n symbols from deduplicated edges. Edge
// endpoints must be valid ids in [0, n).
func New(n int, edges []Edge) *Graph {
	g := &Graph{
		n:      n,
		edges:  edges,
		outIdx: make([][]int, n),
		inIdx:  make([][]int, n),
	}
	for i, e := range edges {
		g.outIdx[e.Source] = append(g.outIdx[e.Source], i)
		g.inIdx[e.Target] = append(g.inIdx[e.Target], i)
	}
	return g
}

func (g *Graph) NumNodes() int { return g.n }

func (g *Graph) NumEdges() int { return len(g.edges) }

// Edges returns all edges in insertion order. Callers must not modify
// the returned slice.
func (g *Graph) Edges() []Edge { return g.edges }

// Outgoing returns the edges leaving a symbol, in insertion order.
func (g *Graph) Outgoing(id int) []Edge {
	return g.edgeList(g.outIdx, id)
}

// Incoming returns the edges arriving at a symbol, in insertion order.
func (g *Graph) Incoming(id int) []Edge {
	return g.edgeList(g.inIdx, id)
}

func (g *Graph) edgeList(idx [][]int, id int) []Edge {
	if id < 0 || id >= g.n || len(idx[id]) == 0 {
		return nil
	}
	out := make([]Edge, len(idx[id]))
	for i, ei := range idx[id] {
		out[i] = g.edges[ei]
	}
	return out
}

// Stats summarizes the graph shape for run metadata.
type Stats struct {
	Nodes          int     `json:"nodes"`
	Edges          int     `json:"edges"`
	CallEdges      int     `json:"call_edges"`
	UsesEdges      int     `json:"uses_edges"`
	InheritEdges   int     `json:"inherit_edges"`
	ImplementEdges int     `json:"implement_edges"`
	AvgOutDegree   float64 `json:"avg_out_degree"`
}

func (g *Graph) Stats() Stats {
	stats := Stats{
		Nodes: g.n,
		Edges: len(g.edges),
	}
	for _, e := range g.edges {
		switch e.Kind {
		case EdgeCalls:
			stats.CallEdges++
		case EdgeUses:
			stats.UsesEdges++
		case EdgeInherits:
			stats.InheritEdges++
		case EdgeImplements:
			stats.ImplementEdges++
		}
	}
	if g.n > 0 {
		stats.AvgOutDegree = float64(len(g.edges)) / float64(g.n)
	}
	return stats
}
