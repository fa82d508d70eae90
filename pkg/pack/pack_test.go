package pack

import (
	"encoding/json"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/codemap/pkg/graph"
)

func component(id string, files, externals int) []*graph.Node {
	c := graph.NewNode(id, graph.KindComponent)
	nodes := []*graph.Node{c}
	for i := range files {
		f := graph.NewNode(fmt.Sprintf("%s/file%d.go", id, i), graph.KindFile)
		f.Payload.Label = fmt.Sprintf("file%d.go", i)
		f.ParentID = id
		nodes = append(nodes, f)
	}
	for i := range externals {
		e := graph.NewNode(fmt.Sprintf("%s/ext%d", id, i), graph.KindExternal)
		e.ParentID = id
		nodes = append(nodes, e)
	}
	return nodes
}

func build(t interface{ Fatalf(string, ...any) }, nodes ...[]*graph.Node) *graph.Graph {
	var all []*graph.Node
	for _, ns := range nodes {
		all = append(all, ns...)
	}
	g, stats := graph.Build(all, nil)
	if stats.Total() != 0 {
		t.Fatalf("build stats = %+v", stats)
	}
	return g
}

func TestColumns(t *testing.T) {
	tests := []struct {
		files int
		want  int
	}{
		{0, 0},
		{1, 2},
		{4, 2},
		{5, 3},
		{9, 3},
		{10, 4},
		{100, 4},
	}
	for _, tt := range tests {
		if got := Columns(tt.files, 4); got != tt.want {
			t.Errorf("Columns(%d) = %d, want %d", tt.files, got, tt.want)
		}
	}
}

func TestLabelWidth(t *testing.T) {
	o := DefaultOptions()
	tests := []struct {
		label string
		want  float64
	}{
		{"a.go", 60},
		{"handler_registry.go", 19*7 + 16},
		{"日本語日本語日本語.go", 21*7 + 16},
		{"a_very_long_generated_file_name_for_protobuf_bindings.pb.go", 220},
	}
	for _, tt := range tests {
		if got := LabelWidth(tt.label, o, o.FileMinWidth, o.FileMaxWidth); got != tt.want {
			t.Errorf("LabelWidth(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestSizing(t *testing.T) {
	tests := []struct {
		name        string
		files, exts int
		wantCols    int
		wantRows    int
		wantHeight  float64
		wantMinSize bool
	}{
		{"Empty", 0, 0, 0, 0, 80, true},
		{"FiveFiles", 5, 0, 3, 2, 28 + 24 + 2*24 + 6, false},
		{"ExternalsTaller", 1, 3, 2, 1, 28 + 24 + 3*20 + 2*6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, component("c", tt.files, tt.exts))
			res := Pack(g, DefaultOptions())
			if len(res.Boxes) != 1 {
				t.Fatalf("boxes = %d, want 1", len(res.Boxes))
			}
			b := res.Boxes[0]
			if b.Columns != tt.wantCols || b.Rows != tt.wantRows {
				t.Errorf("grid = %dx%d, want %dx%d", b.Columns, b.Rows, tt.wantCols, tt.wantRows)
			}
			if b.Rect.Height() != tt.wantHeight {
				t.Errorf("height = %v, want %v", b.Rect.Height(), tt.wantHeight)
			}
			if b.Rect.Width() < 160 {
				t.Errorf("width = %v, want >= 160", b.Rect.Width())
			}
			if tt.wantMinSize && b.Rect.Width() != 160 {
				t.Errorf("width = %v, want minimum 160", b.Rect.Width())
			}
			if len(b.Children) != tt.files+tt.exts {
				t.Errorf("children = %d, want %d", len(b.Children), tt.files+tt.exts)
			}
		})
	}
}

func TestChildrenInsideBox(t *testing.T) {
	g := build(t, component("a", 7, 2), component("b", 3, 0))
	res := Pack(g, DefaultOptions())
	if got := res.Apply(g); got != g.Len() {
		t.Errorf("Apply() = %d, want %d", got, g.Len())
	}
	for _, b := range res.Boxes {
		var rects []graph.Rect
		for _, id := range b.Children {
			n, _ := g.Node(id)
			if !n.IsPinned() {
				t.Errorf("%s not pinned", id)
			}
			r := n.Rect()
			if r.Left < b.Rect.Left || r.Right > b.Rect.Right || r.Top < b.Rect.Top+28 || r.Bottom > b.Rect.Bottom {
				t.Errorf("%s rect %+v outside body of %s %+v", id, r, b.ID, b.Rect)
			}
			for _, o := range rects {
				if r.Intersects(o) {
					t.Errorf("%s overlaps a sibling", id)
				}
			}
			rects = append(rects, r)
		}
	}
}

// genComponents draws a list of components with random children.
func genComponents(t *rapid.T) [][]*graph.Node {
	count := rapid.IntRange(1, 14).Draw(t, "components")
	var out [][]*graph.Node
	for i := range count {
		nodes := component(fmt.Sprintf("c%d", i),
			rapid.IntRange(0, 14).Draw(t, "files"),
			rapid.IntRange(0, 4).Draw(t, "externals"))
		nodes[0].Overflow = rapid.IntRange(0, 9).Draw(t, "overflow") == 0
		if rapid.IntRange(0, 2).Draw(t, "kind") == 0 {
			nodes[0].Kind = graph.KindDirectory
		}
		out = append(out, nodes)
	}
	return out
}

func clone(groups [][]*graph.Node) [][]*graph.Node {
	out := make([][]*graph.Node, len(groups))
	for i, g := range groups {
		for _, n := range g {
			c := *n
			out[i] = append(out[i], &c)
		}
	}
	return out
}

func TestPackDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := genComponents(t)
		first := Pack(build(t, clone(groups)...), DefaultOptions())
		second := Pack(build(t, clone(groups)...), DefaultOptions())

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		if string(a) != string(b) {
			t.Fatalf("layouts differ:\n%s\n%s", a, b)
		}
	})
}

func TestPackNoOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		o := DefaultOptions()
		res := Pack(build(t, genComponents(t)...), o)
		for i, a := range res.Boxes {
			for _, b := range res.Boxes[i+1:] {
				if a.Rect.Expand(o.Gap).Intersects(b.Rect) {
					t.Fatalf("%s %+v and %s %+v closer than %v", a.ID, a.Rect, b.ID, b.Rect, o.Gap)
				}
			}
		}
	})
}

func TestPackPrefersWide(t *testing.T) {
	var groups [][]*graph.Node
	for i := range 6 {
		groups = append(groups, component(fmt.Sprintf("c%d", i), 0, 0))
	}
	res := Pack(build(t, groups...), DefaultOptions())
	if res.Bounds.Width() < res.Bounds.Height() {
		t.Errorf("bounds %vx%v, want wider than tall", res.Bounds.Width(), res.Bounds.Height())
	}
	first := res.Boxes[0].Rect
	if first.Left != 0 || first.Top != 0 {
		t.Errorf("first box at (%v,%v), want origin", first.Left, first.Top)
	}
}

func TestPackWidestFirst(t *testing.T) {
	narrow := component("narrow", 0, 0)
	wide := component("wide", 12, 0)
	g := build(t, narrow, wide)
	res := Pack(g, DefaultOptions())
	p, _ := res.Position("wide")
	if p.X-p.Width/2 != 0 || p.Y-p.Height/2 != 0 {
		t.Errorf("wide box at (%v,%v), want origin", p.X-p.Width/2, p.Y-p.Height/2)
	}
}

func TestPackPreplaced(t *testing.T) {
	pinned := component("pinned", 2, 0)
	pinned[0].Pin(1000, 1000)
	g := build(t, component("a", 4, 0), pinned, component("b", 1, 1))
	o := DefaultOptions()
	res := Pack(g, o)

	p, _ := res.Position("pinned")
	if p.X != 1000 || p.Y != 1000 {
		t.Errorf("pinned box at (%v,%v), want (1000,1000)", p.X, p.Y)
	}
	if res.Stats.Preplaced != 1 {
		t.Errorf("Preplaced = %d, want 1", res.Stats.Preplaced)
	}
	for i, a := range res.Boxes {
		for _, b := range res.Boxes[i+1:] {
			if a.Rect.Expand(o.Gap).Intersects(b.Rect) {
				t.Errorf("%s and %s overlap", a.ID, b.ID)
			}
		}
	}
}

func TestApplyMarksPackedPins(t *testing.T) {
	pinned := component("pinned", 1, 0)
	pinned[0].Pin(1000, 1000)
	g := build(t, component("a", 2, 0), pinned)
	Pack(g, DefaultOptions()).Apply(g)

	for _, n := range g.Nodes {
		if !n.IsPinned() {
			t.Errorf("%s not pinned after Apply", n.ID)
		}
		if want := n.ID != "pinned"; n.Packed != want {
			t.Errorf("%s Packed = %v, want %v", n.ID, n.Packed, want)
		}
	}
}

func TestPackOverflowBelow(t *testing.T) {
	late := component("late", 3, 0)
	late[0].Overflow = true
	g := build(t, late, component("a", 4, 0), component("b", 9, 2))
	o := DefaultOptions()
	res := Pack(g, o)

	var lateRect graph.Rect
	bottom := 0.0
	for _, b := range res.Boxes {
		if b.ID == "late" {
			lateRect = b.Rect
			continue
		}
		bottom = max(bottom, b.Rect.Bottom)
	}
	if lateRect.Top < bottom+o.Gap {
		t.Errorf("overflow top = %v, want >= %v", lateRect.Top, bottom+o.Gap)
	}
	if res.Stats.Overflow != 1 {
		t.Errorf("Overflow = %d, want 1", res.Stats.Overflow)
	}
}

func TestPackOrphans(t *testing.T) {
	loose := graph.NewNode("loose.go", graph.KindFile)
	g := build(t, component("a", 2, 0), []*graph.Node{loose})
	res := Pack(g, DefaultOptions())
	res.Apply(g)

	if res.Stats.Orphans != 1 {
		t.Errorf("Orphans = %d, want 1", res.Stats.Orphans)
	}
	a, _ := g.Node("a")
	if !loose.IsPinned() || loose.Rect().Top <= a.Rect().Bottom {
		t.Errorf("orphan at %+v, want pinned below %+v", loose.Rect(), a.Rect())
	}
}

func TestPackEmpty(t *testing.T) {
	g, _ := graph.Build(nil, nil)
	res := Pack(g, DefaultOptions())
	if len(res.Boxes) != 0 || len(res.Placements) != 0 {
		t.Errorf("Pack(empty) = %+v, want zero result", res)
	}
	if Pack(nil, Options{}).Stats.Boxes != 0 {
		t.Error("Pack(nil) should be empty")
	}
}

func TestPackBudget(t *testing.T) {
	var groups [][]*graph.Node
	for i := range 5 {
		groups = append(groups, component(fmt.Sprintf("c%d", i), i, 0))
	}
	o := DefaultOptions()
	o.MaxCandidates = 1
	res := Pack(build(t, groups...), o)
	if res.Stats.BudgetExhausted == 0 {
		t.Error("BudgetExhausted = 0, want > 0 with a budget of 1")
	}
	for i, a := range res.Boxes {
		for _, b := range res.Boxes[i+1:] {
			if a.Rect.Expand(o.Gap).Intersects(b.Rect) {
				t.Errorf("%s and %s overlap", a.ID, b.ID)
			}
		}
	}
}
