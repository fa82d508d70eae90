package route

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/codemap/pkg/graph"
)

func box(id string, kind graph.Kind, x, y, w, h float64) *graph.Node {
	n := graph.NewNode(id, kind)
	n.X, n.Y, n.Width, n.Height = x, y, w, h
	return n
}

func file(id string, x, y float64) *graph.Node { return box(id, graph.KindFile, x, y, 120, 24) }

func checkOrthogonal(t *testing.T, p Path) {
	t.Helper()
	for i, s := range p.Segments() {
		if s.From.X != s.To.X && s.From.Y != s.To.Y {
			t.Errorf("segment %d %+v is diagonal", i, s)
		}
	}
}

func TestRoute(t *testing.T) {
	src := file("src", 0, 0)
	dst := file("dst", 400, 100)

	hidden := file("hidden", 200, 50)
	hidden.View.Visible = false

	tests := []struct {
		name      string
		obstacles []*graph.Node
		wantSegs  int
		wantHit   string
	}{
		{"Clear", nil, 3, ""},
		{"OffToTheSide", []*graph.Node{box("side", graph.KindFile, 200, 300, 100, 20)}, 3, ""},
		{"LeftOfMid", []*graph.Node{box("left", graph.KindFile, 120, 50, 60, 20)}, 3, ""},
		{"Blocking", []*graph.Node{box("block", graph.KindFile, 200, 50, 100, 20)}, 4, "block"},
		{"BlockingExternal", []*graph.Node{box("ext", graph.KindExternal, 205, 20, 40, 20)}, 4, "ext"},
		{"HiddenIgnored", []*graph.Node{hidden}, 3, ""},
		{"ContainerIgnored", []*graph.Node{box("comp", graph.KindComponent, 200, 50, 160, 80)}, 3, ""},
		{"EndpointsIgnored", []*graph.Node{src, dst}, 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Route(src, dst, tt.obstacles, DefaultOptions())
			if got := len(p.Segments()); got != tt.wantSegs {
				t.Fatalf("segments = %d, want %d (%v)", got, tt.wantSegs, p.Points)
			}
			if p.Obstacle != tt.wantHit || p.Rerouted != (tt.wantHit != "") {
				t.Errorf("obstacle = %q rerouted=%v, want %q", p.Obstacle, p.Rerouted, tt.wantHit)
			}
			checkOrthogonal(t, p)
			if first := p.Points[0]; first.X != 60 || first.Y != 0 {
				t.Errorf("start = %+v, want source right edge (60,0)", first)
			}
			if last := p.Points[len(p.Points)-1]; last.X != 340 || last.Y != 100 {
				t.Errorf("end = %+v, want target left edge (340,100)", last)
			}
		})
	}
}

func TestRouteDetourClearsObstacle(t *testing.T) {
	o := DefaultOptions()
	src, dst := file("src", 0, 0), file("dst", 400, 100)
	block := box("block", graph.KindFile, 200, 50, 100, 20)

	p := Route(src, dst, []*graph.Node{block}, o)
	clear := block.Rect().Expand(o.Margin)
	for i, s := range p.Segments() {
		if s.Rect().Intersects(clear) {
			t.Errorf("segment %d %+v crosses %+v", i, s, clear)
		}
	}
	if ry := p.Points[2].Y; ry != clear.Top {
		t.Errorf("detour y = %v, want obstacle top minus margin %v", ry, clear.Top)
	}
}

func TestRouteDetourWideObstacle(t *testing.T) {
	o := DefaultOptions()
	tests := []struct {
		name     string
		src, dst *graph.Node
		block    *graph.Node
	}{
		{"ReachesBackToSource", file("src", 0, 0), file("dst", 500, 100), box("block", graph.KindFile, 250, 10, 360, 24)},
		{"ReachesBackLeftward", file("src", 500, 0), file("dst", 0, 100), box("block", graph.KindFile, 250, 10, 360, 24)},
		{"SpansTarget", file("src", 0, -100), file("dst", 500, 100), box("block", graph.KindFile, 350, 0, 500, 24)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Route(tt.src, tt.dst, []*graph.Node{tt.block}, o)
			if !p.Rerouted || len(p.Segments()) != 4 {
				t.Fatalf("route = %v, want a 4-leg detour", p.Points)
			}
			clear := tt.block.Rect().Expand(o.Margin)
			for i, s := range p.Segments() {
				if s.Rect().Intersects(clear) {
					t.Errorf("segment %d %+v crosses %+v", i, s, clear)
				}
			}
			checkOrthogonal(t, p)
		})
	}
}

func TestRouteDetourPicksNearerSide(t *testing.T) {
	o := DefaultOptions()
	src, dst := file("src", 0, 100), file("dst", 400, 0)
	block := box("block", graph.KindFile, 200, 50, 100, 20)

	p := Route(src, dst, []*graph.Node{block}, o)
	if !p.Rerouted {
		t.Fatal("expected detour")
	}
	if ry := p.Points[2].Y; ry != 68 {
		t.Errorf("detour y = %v, want bottom side 68", ry)
	}
}

func TestRouteLeftward(t *testing.T) {
	src, dst := file("src", 400, 0), file("dst", 0, 80)
	p := Route(src, dst, nil, DefaultOptions())
	want := []graph.Point{{X: 340, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 80}, {X: 60, Y: 80}}
	if len(p.Points) != len(want) {
		t.Fatalf("points = %v, want %v", p.Points, want)
	}
	for i := range want {
		if p.Points[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, p.Points[i], want[i])
		}
	}
}

func TestRouteDegenerate(t *testing.T) {
	a := file("a", 0, 0)
	if !Route(a, a, nil, DefaultOptions()).Empty() {
		t.Error("self route should be empty")
	}
	if !Route(nil, a, nil, DefaultOptions()).Empty() {
		t.Error("nil source should be empty")
	}
}

func TestSVGPath(t *testing.T) {
	p := Route(file("src", 0, 0), file("dst", 400, 100.5), nil, DefaultOptions())
	want := "M60 0 L200 0 L200 100.5 L340 100.5"
	if got := p.SVGPath(); got != want {
		t.Errorf("SVGPath() = %q, want %q", got, want)
	}
}

func TestRouteAll(t *testing.T) {
	a, b, c := file("a", 0, 0), file("b", 400, 0), file("c", 400, 200)
	comp := box("comp", graph.KindComponent, -500, 0, 160, 80)
	c.View.Visible = false
	g, _ := graph.Build([]*graph.Node{a, b, c, comp}, []graph.Edge{
		{Source: "a", Target: "b", Kind: graph.EdgeImports},
		{Source: "a", Target: "c", Kind: graph.EdgeImports},
		{Source: "comp", Target: "a", Kind: graph.EdgeContains},
	})
	got := RouteAll(g, DefaultOptions())
	if len(got) != 1 || got[0].Edge.Target != "b" {
		t.Errorf("RouteAll() = %+v, want only a->b", got)
	}
}

func TestRouteProperty(t *testing.T) {
	o := DefaultOptions()
	rapid.Check(t, func(t *rapid.T) {
		src := file("src", 0, rapid.Float64Range(-200, 200).Draw(t, "sy"))
		dst := file("dst", rapid.Float64Range(300, 800).Draw(t, "dx"), rapid.Float64Range(-200, 200).Draw(t, "dy"))
		ob := box("ob", graph.KindFile,
			rapid.Float64Range(-100, 900).Draw(t, "ox"),
			rapid.Float64Range(-300, 300).Draw(t, "oy"),
			rapid.Float64Range(10, 150).Draw(t, "ow"),
			rapid.Float64Range(10, 60).Draw(t, "oh"))

		base := Route(src, dst, nil, o)
		vertical := base.Segments()[1]
		clear := ob.Rect().Expand(o.Margin)
		blocked := vertical.From.X >= clear.Left && vertical.From.X <= clear.Right &&
			clear.Bottom >= vertical.Rect().Top && clear.Top <= vertical.Rect().Bottom

		p := Route(src, dst, []*graph.Node{ob}, o)
		if !blocked {
			if len(p.Segments()) != 3 {
				t.Fatalf("unblocked route has %d segments", len(p.Segments()))
			}
			return
		}
		if len(p.Segments()) != 4 {
			t.Fatalf("blocked route has %d segments", len(p.Segments()))
		}
		ry := p.Points[2].Y
		if ry > clear.Top && ry < clear.Bottom {
			t.Fatalf("detour y %v inside obstacle band [%v,%v]", ry, clear.Top, clear.Bottom)
		}
		if clear.Intersects(src.Rect()) || clear.Intersects(dst.Rect()) {
			return
		}
		for i, s := range p.Segments() {
			if s.Rect().Intersects(clear) {
				t.Fatalf("segment %d %+v crosses obstacle %+v", i, s, clear)
			}
		}
	})
}
