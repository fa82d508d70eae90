package graph

import (
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// ShortestPath returns the node IDs of a shortest directed path from one node
// to another, both ends included. Every edge costs one hop regardless of
// weight. Among equally short paths the one reached through the earliest
// edges in input order wins. It returns nil when either ID is unknown or no
// path exists.
func ShortestPath(g *Graph, from, to string) []string {
	if g == nil {
		return nil
	}
	if _, ok := g.index[from]; !ok {
		return nil
	}
	if _, ok := g.index[to]; !ok {
		return nil
	}
	if from == to {
		return []string{from}
	}

	adj := newAdjacency(g)
	src, dst := adj.ids[from], adj.ids[to]
	parent := make(map[int64]int64)
	bf := traverse.BreadthFirst{
		Traverse: func(e gonum.Edge) bool {
			v := e.To().ID()
			if _, seen := parent[v]; !seen && v != src {
				parent[v] = e.From().ID()
			}
			return true
		},
	}
	found := bf.Walk(adj, simple.Node(src), func(n gonum.Node, _ int) bool { return n.ID() == dst })
	if found == nil {
		return nil
	}

	var rev []string
	for v := dst; ; v = parent[v] {
		rev = append(rev, g.Nodes[v].ID)
		if v == src {
			break
		}
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}

// adjacency is a read-only gonum view of a Graph whose neighbour lists keep
// edge input order, so traversals are repeatable. Node IDs are indexes into
// Graph.Nodes.
type adjacency struct {
	ids  map[string]int64
	out  [][]gonum.Node
	in   [][]gonum.Node
	has  map[[2]int64]bool
	size int
}

func newAdjacency(g *Graph) *adjacency {
	a := &adjacency{
		ids:  make(map[string]int64, len(g.Nodes)),
		out:  make([][]gonum.Node, len(g.Nodes)),
		in:   make([][]gonum.Node, len(g.Nodes)),
		has:  make(map[[2]int64]bool, len(g.Edges)),
		size: len(g.Nodes),
	}
	for i, n := range g.Nodes {
		a.ids[n.ID] = int64(i)
	}
	for _, e := range g.Edges {
		u, uok := a.ids[e.Source]
		v, vok := a.ids[e.Target]
		if !uok || !vok || u == v || a.has[[2]int64{u, v}] {
			continue
		}
		a.has[[2]int64{u, v}] = true
		a.out[u] = append(a.out[u], simple.Node(v))
		a.in[v] = append(a.in[v], simple.Node(u))
	}
	return a
}

func (a *adjacency) valid(id int64) bool { return id >= 0 && id < int64(a.size) }

func (a *adjacency) Node(id int64) gonum.Node {
	if !a.valid(id) {
		return nil
	}
	return simple.Node(id)
}

func (a *adjacency) Nodes() gonum.Nodes {
	nodes := make([]gonum.Node, a.size)
	for i := range nodes {
		nodes[i] = simple.Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (a *adjacency) From(id int64) gonum.Nodes {
	if !a.valid(id) || len(a.out[id]) == 0 {
		return gonum.Empty
	}
	return iterator.NewOrderedNodes(a.out[id])
}

func (a *adjacency) To(id int64) gonum.Nodes {
	if !a.valid(id) || len(a.in[id]) == 0 {
		return gonum.Empty
	}
	return iterator.NewOrderedNodes(a.in[id])
}

func (a *adjacency) HasEdgeFromTo(uid, vid int64) bool { return a.has[[2]int64{uid, vid}] }

func (a *adjacency) HasEdgeBetween(xid, yid int64) bool {
	return a.HasEdgeFromTo(xid, yid) || a.HasEdgeFromTo(yid, xid)
}

func (a *adjacency) Edge(uid, vid int64) gonum.Edge {
	if !a.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}
