// Package route computes orthogonal connector paths between map nodes.
//
// A connector leaves the facing edge of its source box, turns at the
// midpoint between the two boxes and enters the facing edge of its target.
// When another file or external box sits across the middle leg, the path
// detours above or below the nearest such box instead, turning no closer
// than the margin to it. This is a greedy
// single-obstacle heuristic, not a path planner.
package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/codemap/pkg/graph"
)

// Options holds the router constants.
type Options struct {
	// Margin is the clearance kept around obstacles.
	Margin float64 `toml:"margin"`
	// Stub is the length of the first leg of a detour.
	Stub float64 `toml:"stub"`
}

// DefaultOptions returns the default router constants.
func DefaultOptions() Options {
	return Options{Margin: 8, Stub: 16}
}

// Segment is one straight leg of a path.
type Segment struct {
	From graph.Point
	To   graph.Point
}

// Horizontal reports whether the segment has constant y.
func (s Segment) Horizontal() bool { return s.From.Y == s.To.Y }

// Rect returns the zero-width bounding rectangle of the segment.
func (s Segment) Rect() graph.Rect {
	return graph.Rect{
		Left:   math.Min(s.From.X, s.To.X),
		Top:    math.Min(s.From.Y, s.To.Y),
		Right:  math.Max(s.From.X, s.To.X),
		Bottom: math.Max(s.From.Y, s.To.Y),
	}
}

// Path is an orthogonal polyline.
type Path struct {
	Points   []graph.Point `json:"points"`
	Rerouted bool          `json:"rerouted,omitempty"`
	// Obstacle is the ID of the box a detour avoids.
	Obstacle string `json:"obstacle,omitempty"`
}

// Segments returns the legs of the path.
func (p Path) Segments() []Segment {
	if len(p.Points) < 2 {
		return nil
	}
	out := make([]Segment, len(p.Points)-1)
	for i := range out {
		out[i] = Segment{From: p.Points[i], To: p.Points[i+1]}
	}
	return out
}

// Empty reports whether the path has no legs.
func (p Path) Empty() bool { return len(p.Points) < 2 }

// SVGPath returns the path as SVG path data.
func (p Path) SVGPath() string {
	var b strings.Builder
	for i, pt := range p.Points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
	}
	return b.String()
}

// Route returns the connector from src to dst. Visible file and external
// nodes in nodes other than the endpoints are obstacles. Missing or
// degenerate endpoints yield an empty path.
func Route(src, dst *graph.Node, nodes []*graph.Node, opts Options) Path {
	if src == nil || dst == nil || src == dst || !finitePoint(src) || !finitePoint(dst) {
		return Path{}
	}

	sr, dr := src.Rect(), dst.Rect()
	dir := 1.0
	start := graph.Point{X: sr.Right, Y: src.Y}
	end := graph.Point{X: dr.Left, Y: dst.Y}
	if dst.X < src.X {
		dir = -1
		start.X, end.X = sr.Left, dr.Right
	}
	midX := (start.X + end.X) / 2

	lo, hi := math.Min(start.Y, end.Y), math.Max(start.Y, end.Y)
	var hit *graph.Node
	var hitRect graph.Rect
	for _, n := range nodes {
		if n == nil || n == src || n == dst || n.ID == src.ID || n.ID == dst.ID {
			continue
		}
		if !n.Kind.IsLeaf() || !n.View.Visible {
			continue
		}
		r := n.Rect().Expand(opts.Margin)
		if midX < r.Left || midX > r.Right || r.Bottom < lo || r.Top > hi {
			continue
		}
		if hit == nil || math.Abs(n.Y-start.Y) < math.Abs(hit.Y-start.Y) {
			hit, hitRect = n, r
		}
	}

	if hit == nil {
		return Path{Points: []graph.Point{
			start,
			{X: midX, Y: start.Y},
			{X: midX, Y: end.Y},
			end,
		}}
	}

	// The detour runs along the side nearer the source, unless the obstacle
	// also spans the final leg, which must then approach from the target's side.
	side := start.Y
	if hitRect.Left < end.X && end.X < hitRect.Right {
		side = end.Y
	}
	ry := hitRect.Top
	if math.Abs(hitRect.Bottom-side) < math.Abs(hitRect.Top-side) {
		ry = hitRect.Bottom
	}
	stub := math.Min(opts.Stub, math.Abs(midX-start.X)/2)
	x1 := start.X + dir*stub
	if dir > 0 && x1 > hitRect.Left {
		x1 = hitRect.Left
	} else if dir < 0 && x1 < hitRect.Right {
		x1 = hitRect.Right
	}
	return Path{
		Points: []graph.Point{
			start,
			{X: x1, Y: start.Y},
			{X: x1, Y: ry},
			{X: end.X, Y: ry},
			end,
		},
		Rerouted: true,
		Obstacle: hit.ID,
	}
}

// Connector is a routed edge.
type Connector struct {
	Edge graph.Edge `json:"edge"`
	Path Path       `json:"path"`
}

// RouteAll routes every visible edge whose endpoints are both file or
// external nodes.
func RouteAll(g *graph.Graph, opts Options) []Connector {
	if g == nil {
		return nil
	}
	var obstacles []*graph.Node
	for _, n := range g.Nodes {
		if n.Kind.IsLeaf() && n.View.Visible {
			obstacles = append(obstacles, n)
		}
	}
	var out []Connector
	for _, e := range g.VisibleEdges() {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		if !src.Kind.IsLeaf() || !dst.Kind.IsLeaf() {
			continue
		}
		p := Route(src, dst, obstacles, opts)
		if p.Empty() {
			continue
		}
		out = append(out, Connector{Edge: e, Path: p})
	}
	return out
}

func finitePoint(n *graph.Node) bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y) && !math.IsInf(n.X, 0) && !math.IsInf(n.Y, 0)
}
