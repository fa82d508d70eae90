package graph

import "math"

// =============================================================================
// Graph
// =============================================================================

// Graph is the node and edge set of one map, indexed by node ID.
//
// Nodes keep their input order. Every edge in Edges references two nodes
// present in Nodes; [Build] guarantees this.
type Graph struct {
	Nodes []*Node
	Edges []Edge

	index    map[string]*Node
	children map[string][]*Node
}

// BuildStats counts input anomalies absorbed by [Build].
type BuildStats struct {
	InvalidNodes   int // nodes without an ID
	DuplicateNodes int // later nodes repeating an earlier ID
	DanglingEdges  int // edges naming a missing endpoint
}

// Total returns the number of dropped inputs.
func (s BuildStats) Total() int { return s.InvalidNodes + s.DuplicateNodes + s.DanglingEdges }

// Build indexes nodes and edges into a Graph. It never fails: nodes without
// an ID, repeated IDs and edges whose endpoints are unknown are dropped and
// counted in the returned stats.
func Build(nodes []*Node, edges []Edge) (*Graph, BuildStats) {
	var stats BuildStats
	g := &Graph{
		Nodes:    make([]*Node, 0, len(nodes)),
		index:    make(map[string]*Node, len(nodes)),
		children: make(map[string][]*Node),
	}
	for _, n := range nodes {
		switch {
		case n == nil || n.ID == "":
			stats.InvalidNodes++
			continue
		case g.index[n.ID] != nil:
			stats.DuplicateNodes++
			continue
		}
		if n.Width <= 0 || n.Height <= 0 {
			s := DefaultSize(n.Kind)
			n.Width, n.Height = s.Width, s.Height
		}
		g.index[n.ID] = n
		g.Nodes = append(g.Nodes, n)
	}
	for _, n := range g.Nodes {
		if n.ParentID != "" && n.ParentID != n.ID && g.index[n.ParentID] != nil {
			g.children[n.ParentID] = append(g.children[n.ParentID], n)
		}
	}
	for _, e := range edges {
		if g.index[e.Source] == nil || g.index[e.Target] == nil {
			stats.DanglingEdges++
			continue
		}
		g.Edges = append(g.Edges, e)
	}
	return g, stats
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Nodes) }

// Children returns the nodes whose ParentID is id, in input order.
func (g *Graph) Children(id string) []*Node { return g.children[id] }

// Descendants returns every node below id in the parent hierarchy,
// breadth first. Cycles in ParentID are cut.
func (g *Graph) Descendants(id string) []*Node {
	var out []*Node
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.children[cur] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out
}

// ByKind returns the nodes of the given kinds, in input order.
func (g *Graph) ByKind(kinds ...Kind) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		for _, k := range kinds {
			if n.Kind == k {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// VisibleEdges returns the edges whose endpoints are both visible.
func (g *Graph) VisibleEdges() []Edge {
	out := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if g.index[e.Source].View.Visible && g.index[e.Target].View.Visible {
			out = append(out, e)
		}
	}
	return out
}

// Degree returns the number of edges touching each node ID.
func (g *Graph) Degree() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// CarryPositions copies position and pin state from nodes of prev with
// matching IDs. Pins the packing layout wrote are dropped so the next pack
// places those nodes afresh. It returns the number of nodes carried over.
func (g *Graph) CarryPositions(prev *Graph) int {
	if prev == nil {
		return 0
	}
	carried := 0
	for _, n := range g.Nodes {
		old, ok := prev.index[n.ID]
		if !ok {
			continue
		}
		n.X, n.Y = old.X, old.Y
		n.FX, n.FY = nil, nil
		if p, ok := old.Pinned(); ok && !old.Packed {
			n.Pin(p.X, p.Y)
		}
		carried++
	}
	return carried
}

// SeedPins pins nodes at stored positions. A node is matched by its
// PositionKey first and its ID second. It returns the number of nodes pinned.
func (g *Graph) SeedPins(pins map[string]Point) int {
	if len(pins) == 0 {
		return 0
	}
	seeded := 0
	for _, n := range g.Nodes {
		p, ok := pins[n.PositionKey()]
		if !ok {
			p, ok = pins[n.ID]
		}
		if !ok || !finite(p.X) || !finite(p.Y) {
			continue
		}
		n.Pin(p.X, p.Y)
		n.Packed = false
		seeded++
	}
	return seeded
}

// Bounds returns the union of the boxes of the given nodes.
func Bounds(nodes []*Node) (Rect, bool) {
	var r Rect
	found := false
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !found {
			r, found = n.Rect(), true
			continue
		}
		r = r.Union(n.Rect())
	}
	return r, found
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
