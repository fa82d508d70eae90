package pack

import (
	"math"
	"slices"

	"github.com/matzehuels/codemap/pkg/graph"
)

// Placement is the computed centre and size of one node.
type Placement struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box describes one packed container.
type Box struct {
	ID        string     `json:"id"`
	Rect      graph.Rect `json:"rect"`
	Columns   int        `json:"columns"`
	Rows      int        `json:"rows"`
	Overflow  bool       `json:"overflow,omitempty"`
	Preplaced bool       `json:"preplaced,omitempty"`
	Children  []string   `json:"children,omitempty"`
}

// Stats summarises a packing run.
type Stats struct {
	Boxes           int `json:"boxes"`
	Children        int `json:"children"`
	Preplaced       int `json:"preplaced"`
	Overflow        int `json:"overflow"`
	Orphans         int `json:"orphans"`
	Candidates      int `json:"candidates"`
	BudgetExhausted int `json:"budgetExhausted"`
}

// Result is the output of [Pack]. Placements follow the input node order.
type Result struct {
	Boxes      []Box       `json:"boxes"`
	Placements []Placement `json:"placements"`
	Bounds     graph.Rect  `json:"bounds"`
	Stats      Stats       `json:"stats"`
}

// Pack computes fixed positions for every component and directory box and
// for the file and external nodes they contain. It is deterministic: equal
// input in equal order yields identical output. Pack does not modify g; use
// [Result.Apply] to write the positions.
//
// Boxes already pinned keep their position and are placed first. Boxes
// flagged Overflow are shelved below everything else afterwards. Leaves
// without a container parent are shelved last.
func Pack(g *graph.Graph, opts Options) Result {
	o := opts.withDefaults()
	var res Result
	if g == nil || g.Len() == 0 {
		return res
	}

	var boxes []*box
	owned := make(map[string]bool)
	for i, n := range g.ByKind(graph.KindComponent, graph.KindDirectory) {
		var leaves []*graph.Node
		for _, c := range g.Children(n.ID) {
			if c.Kind.IsLeaf() {
				leaves = append(leaves, c)
				owned[c.ID] = true
			}
		}
		boxes = append(boxes, size(n, leaves, i, o))
	}

	p := &placer{o: o, stats: &res.Stats}
	var main, overflow []*box
	for _, b := range boxes {
		if pin, ok := b.node.Pinned(); ok {
			b.left, b.top = pin.X-b.width/2, pin.Y-b.height/2
			b.placed = true
			p.occupy(b.rect())
			res.Stats.Preplaced++
			continue
		}
		if b.overflow {
			overflow = append(overflow, b)
			continue
		}
		main = append(main, b)
	}

	byWidth := func(a, b *box) int {
		switch {
		case a.width != b.width:
			return cmpDesc(a.width, b.width)
		case a.area() != b.area():
			return cmpDesc(a.area(), b.area())
		}
		return a.order - b.order
	}
	slices.SortStableFunc(main, byWidth)
	for _, b := range main {
		p.place(b)
	}

	if len(overflow) > 0 {
		slices.SortStableFunc(overflow, byWidth)
		left, top, width := below(p, overflow, o.Gap)
		shelve(overflow, left, top, width, o.Gap)
		for _, b := range overflow {
			p.occupy(b.rect())
		}
		res.Stats.Overflow = len(overflow)
	}

	var orphans []*box
	for i, n := range g.ByKind(graph.KindFile, graph.KindExternal) {
		if owned[n.ID] {
			continue
		}
		h := o.FileHeight
		if n.Kind == graph.KindExternal {
			h = o.ExternalHeight
		}
		orphans = append(orphans, &box{
			node:   n,
			order:  i,
			width:  LabelWidth(n.Label(), o, o.FileMinWidth, o.FileMaxWidth),
			height: h,
		})
	}
	if len(orphans) > 0 {
		left, top, width := below(p, orphans, o.Gap)
		shelve(orphans, left, top, width, o.Gap)
		for _, b := range orphans {
			p.occupy(b.rect())
		}
		res.Stats.Orphans = len(orphans)
	}

	res.Bounds = p.bounds
	res.Stats.Boxes = len(boxes)
	res.collect(g, boxes, orphans)
	return res
}

// below returns the origin and wrap width for shelving boxes under the
// current layout.
func below(p *placer, boxes []*box, gap float64) (left, top, width float64) {
	widest := 0.0
	for _, b := range boxes {
		widest = math.Max(widest, b.width)
	}
	if !p.started {
		return 0, 0, math.Max(widest, 600)
	}
	return p.bounds.Left, p.bounds.Bottom + gap, math.Max(widest, p.bounds.Width())
}

func (r *Result) collect(g *graph.Graph, boxes, orphans []*box) {
	at := make(map[string]Placement, g.Len())
	for _, b := range boxes {
		rect := b.rect()
		_, pre := b.node.Pinned()
		out := Box{
			ID:        b.node.ID,
			Rect:      rect,
			Columns:   b.columns,
			Rows:      b.rows,
			Overflow:  b.overflow,
			Preplaced: pre,
		}
		at[b.node.ID] = Placement{ID: b.node.ID, X: rect.CenterX(), Y: rect.CenterY(), Width: b.width, Height: b.height}
		for _, s := range b.slots {
			out.Children = append(out.Children, s.node.ID)
			at[s.node.ID] = Placement{ID: s.node.ID, X: b.left + s.dx, Y: b.top + s.dy, Width: s.width, Height: s.height}
			r.Stats.Children++
		}
		r.Boxes = append(r.Boxes, out)
	}
	for _, b := range orphans {
		rect := b.rect()
		at[b.node.ID] = Placement{ID: b.node.ID, X: rect.CenterX(), Y: rect.CenterY(), Width: b.width, Height: b.height}
	}
	for _, n := range g.Nodes {
		if pl, ok := at[n.ID]; ok {
			r.Placements = append(r.Placements, pl)
		}
	}
}

// Position returns the placement of a node.
func (r Result) Position(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Apply writes sizes and positions into g and pins every placed node.
// Nodes that were not already pinned are marked Packed. It returns the
// number of nodes updated.
func (r Result) Apply(g *graph.Graph) int {
	n := 0
	for _, p := range r.Placements {
		node, ok := g.Node(p.ID)
		if !ok {
			continue
		}
		node.Width, node.Height = p.Width, p.Height
		if !node.IsPinned() {
			node.Packed = true
		}
		node.Pin(p.X, p.Y)
		n++
	}
	return n
}

func cmpDesc(a, b float64) int {
	if a > b {
		return -1
	}
	return 1
}
