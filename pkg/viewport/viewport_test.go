package viewport

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/matzehuels/codemap/pkg/graph"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestInverseConsistency(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 1000 {
		tr := Transform{
			K: 0.01 + r.Float64()*20,
			X: (r.Float64() - 0.5) * 1e4,
			Y: (r.Float64() - 0.5) * 1e4,
		}
		px, py := (r.Float64()-0.5)*1e4, (r.Float64()-0.5)*1e4
		gx, gy := tr.ScreenToGraph(px, py)
		sx, sy := tr.GraphToScreen(gx, gy)
		if !near(sx, px, 1e-6) || !near(sy, py, 1e-6) {
			t.Fatalf("sample %d: %+v (%v,%v) -> (%v,%v)", i, tr, px, py, sx, sy)
		}
	}
}

func TestWheelKeepsCursorFixed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(800, 600, DefaultOptions())
		c.SetTransform(Transform{
			K: rapid.Float64Range(0.1, 10).Draw(t, "k"),
			X: rapid.Float64Range(-2000, 2000).Draw(t, "x"),
			Y: rapid.Float64Range(-2000, 2000).Draw(t, "y"),
		})
		px := rapid.Float64Range(0, 800).Draw(t, "px")
		py := rapid.Float64Range(0, 600).Draw(t, "py")
		gx, gy := c.ScreenToGraph(px, py)

		c.Wheel(px, py, rapid.Float64Range(-500, 500).Draw(t, "delta"))

		hx, hy := c.ScreenToGraph(px, py)
		if !near(gx, hx, 1e-6) || !near(gy, hy, 1e-6) {
			t.Fatalf("cursor point moved from (%v,%v) to (%v,%v)", gx, gy, hx, hy)
		}
		if k := c.Transform().K; k < 0.1 || k > 10 {
			t.Fatalf("K = %v outside bounds", k)
		}
	})
}

func TestWheelStep(t *testing.T) {
	c := New(800, 600, DefaultOptions())
	c.Wheel(400, 300, -500)
	if got := c.Transform().K; !near(got, 2, 1e-12) {
		t.Errorf("K = %v, want 2 after deltaY -500", got)
	}
	for range 50 {
		c.Wheel(0, 0, -1000)
	}
	if got := c.Transform().K; got != 10 {
		t.Errorf("K = %v, want clamped to 10", got)
	}
	for range 50 {
		c.Wheel(0, 0, 1000)
	}
	if got := c.Transform().K; got != 0.1 {
		t.Errorf("K = %v, want clamped to 0.1", got)
	}
	if c.Wheel(0, 0, math.NaN()) {
		t.Error("NaN wheel changed detail")
	}
}

func hierarchy() *graph.Graph {
	comp := graph.NewNode("api", graph.KindComponent)
	comp.Payload.Label = "api server"
	comp.X, comp.Y, comp.Width, comp.Height = 0, 0, 400, 200
	dir := graph.NewNode("util", graph.KindDirectory)
	dir.X, dir.Y = 600, 0
	a := graph.NewNode("api/a.go", graph.KindFile)
	a.ParentID = "api"
	b := graph.NewNode("api/b.go", graph.KindFile)
	b.ParentID = "api"
	ext := graph.NewNode("lib", graph.KindExternal)
	ext.ParentID = "api"
	u := graph.NewNode("util/u.go", graph.KindFile)
	u.ParentID = "util"
	loose := graph.NewNode("main.go", graph.KindFile)
	g, _ := graph.Build([]*graph.Node{comp, dir, a, b, ext, u, loose}, nil)
	return g
}

func TestThresholdCrossing(t *testing.T) {
	g := hierarchy()
	c := New(800, 600, DefaultOptions())

	c.ZoomTo(0.5, 400, 300)
	c.Apply(g)
	for _, n := range g.Nodes {
		if !n.View.Visible || n.View.Filled {
			t.Errorf("%s at 0.5: visible=%v filled=%v, want outlined and visible", n.ID, n.View.Visible, n.View.Filled)
		}
	}

	if !c.ZoomTo(0.2, 400, 300) {
		t.Error("ZoomTo(0.2) did not report a detail change")
	}
	if !c.Apply(g) {
		t.Error("Apply() = false after crossing the threshold")
	}
	if c.Detail() != DetailCollapsed {
		t.Fatalf("Detail() = %v, want collapsed", c.Detail())
	}
	for _, n := range g.Nodes {
		switch {
		case n.Kind.IsContainer():
			if !n.View.Filled || n.View.HeaderVisible || len(n.View.LabelLines) == 0 {
				t.Errorf("%s: %+v, want filled with a label and no header", n.ID, n.View)
			}
		case n.ParentID != "":
			if n.View.Visible || n.View.Interactive {
				t.Errorf("%s: visible=%v interactive=%v, want hidden", n.ID, n.View.Visible, n.View.Interactive)
			}
		default:
			if !n.View.Visible {
				t.Errorf("%s without a parent should stay visible", n.ID)
			}
		}
	}

	c.ZoomTo(0.5, 400, 300)
	c.Apply(g)
	for _, n := range g.Nodes {
		if !n.View.Visible || n.View.Filled || n.View.LabelLines != nil {
			t.Errorf("%s after zooming back: %+v", n.ID, n.View)
		}
	}
}

func TestApplyReportsChange(t *testing.T) {
	g := hierarchy()
	c := New(800, 600, DefaultOptions())
	if !c.Apply(g) {
		t.Error("first Apply() = false, want true")
	}
	if c.Apply(g) {
		t.Error("second Apply() = true at the same level")
	}
	c.Pan(10, 10)
	if c.Apply(g) {
		t.Error("Apply() = true after a pan")
	}
}

func TestPointerDown(t *testing.T) {
	g := hierarchy()
	a, _ := g.Node("api/a.go")
	a.X, a.Y = 50, 40
	c := New(800, 600, DefaultOptions())
	c.SetTransform(Transform{K: 2, X: 100, Y: 100})

	px, py := c.GraphToScreen(50, 40)
	if p := c.PointerDown(px, py, g.Nodes); p.Target != TargetNode || p.Node != a {
		t.Errorf("PointerDown on file = %+v, want file", p)
	}
	c.PointerUp()

	px, py = c.GraphToScreen(-150, -80)
	if p := c.PointerDown(px, py, g.Nodes); p.Node == nil || p.Node.ID != "api" {
		t.Errorf("PointerDown on container body = %+v, want api", p)
	}
	c.PointerUp()

	a.View.Interactive = false
	px, py = c.GraphToScreen(50, 40)
	if p := c.PointerDown(px, py, g.Nodes); p.Node == nil || p.Node.ID != "api" {
		t.Errorf("PointerDown on disabled file = %+v, want the container below", p)
	}
	c.PointerUp()

	p := c.PointerDown(790, 590, g.Nodes)
	if p.Target != TargetBackground {
		t.Fatalf("PointerDown on background = %+v", p)
	}
	if !c.PointerMove(810, 620) {
		t.Error("PointerMove() = false during pan")
	}
	if tr := c.Transform(); tr.X != 120 || tr.Y != 130 {
		t.Errorf("transform after pan = %+v, want offset (120,130)", tr)
	}
	c.PointerUp()
	if c.PointerMove(50, 50) {
		t.Error("PointerMove() = true after PointerUp")
	}
}

func TestCentered(t *testing.T) {
	near := graph.NewNode("near", graph.KindFile)
	near.X, near.Y = 410, 300
	nearer := graph.NewNode("nearer", graph.KindExternal)
	nearer.X, nearer.Y = 400, 305
	comp := graph.NewNode("comp", graph.KindComponent)
	comp.X, comp.Y = 400, 300
	far := graph.NewNode("far", graph.KindFile)
	far.X, far.Y = 1000, 1000
	nodes := []*graph.Node{near, nearer, comp, far}

	c := New(800, 600, DefaultOptions())
	if n, ok := c.Centered(nodes, graph.KindFile, graph.KindExternal); !ok || n != nearer {
		t.Errorf("Centered(leaves) = %v, want nearer", n)
	}
	if n, ok := c.Centered(nodes, graph.KindComponent); !ok || n != comp {
		t.Errorf("Centered(component) = %v, want comp", n)
	}
	if n, ok := c.Centered(nodes); !ok || n != comp {
		t.Errorf("Centered() = %v, want comp at distance 0", n)
	}
	c.Pan(-5000, 0)
	if _, ok := c.Centered(nodes); ok {
		t.Error("Centered() found a node far from the centre")
	}
}

func TestOnCentered(t *testing.T) {
	a := graph.NewNode("a", graph.KindFile)
	a.X, a.Y = 400, 300
	c := New(800, 600, DefaultOptions())

	var got []string
	c.OnCentered(func(n *graph.Node, ok bool) {
		if ok {
			got = append(got, n.ID)
		} else {
			got = append(got, "-")
		}
	})
	c.Track([]*graph.Node{a}, graph.KindFile)
	c.Pan(1, 0)
	c.Pan(-1000, 0)
	c.Pan(1000, 0)
	if want := []string{"a", "-", "a"}; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("centred changes = %v, want %v", got, want)
	}
}

func TestFit(t *testing.T) {
	a := graph.NewNode("a", graph.KindComponent)
	a.X, a.Y, a.Width, a.Height = 1000, 1000, 200, 100
	b := graph.NewNode("b", graph.KindComponent)
	b.X, b.Y, b.Width, b.Height = 3000, 1500, 200, 100
	c := New(800, 600, DefaultOptions())

	tr := c.Fit([]*graph.Node{a, b})
	r, _ := graph.Bounds([]*graph.Node{a, b})
	left, top := tr.GraphToScreen(r.Left, r.Top)
	right, bottom := tr.GraphToScreen(r.Right, r.Bottom)
	if !near((left+right)/2, 400, 1e-9) || !near((top+bottom)/2, 300, 1e-9) {
		t.Errorf("fitted centre = (%v,%v), want (400,300)", (left+right)/2, (top+bottom)/2)
	}
	if !near(right-left, 640, 1e-9) {
		t.Errorf("fitted width = %v, want 80%% of 800", right-left)
	}
	if bottom-top > 480+1e-9 {
		t.Errorf("fitted height = %v, want <= 480", bottom-top)
	}

	empty := c.Fit(nil)
	if empty.K != 1 || empty.X != 400 || empty.Y != 300 {
		t.Errorf("Fit(nil) = %+v, want identity centred", empty)
	}
}

func TestAnimate(t *testing.T) {
	c := New(800, 600, DefaultOptions())
	start := time.Unix(0, 0)
	to := Transform{K: 2, X: 100, Y: -100}
	c.Animate(to, 750*time.Millisecond, start)

	if !c.Step(start.Add(375 * time.Millisecond)) {
		t.Fatal("Step() = false mid-animation")
	}
	want := Identity.Lerp(to, 0.875)
	if got := c.Transform(); !near(got.K, want.K, 1e-12) || !near(got.X, want.X, 1e-9) {
		t.Errorf("mid transform = %+v, want %+v", got, want)
	}
	if c.Step(start.Add(time.Second)) {
		t.Error("Step() = true after the duration")
	}
	if c.Transform() != to || c.Animating() {
		t.Errorf("final = %+v animating=%v, want %+v", c.Transform(), c.Animating(), to)
	}

	c.Animate(Transform{K: 50}, 0, start)
	if c.Transform().K != 10 {
		t.Errorf("K = %v, want immediate jump clamped to 10", c.Transform().K)
	}
}

func TestEaseCubicOut(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.5, 0.875}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := EaseCubicOut(tt.in); !near(got, tt.want, 1e-12) {
			t.Errorf("EaseCubicOut(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFitLabel(t *testing.T) {
	o := DefaultLabelOptions()
	tests := []struct {
		name      string
		label     string
		w, h      float64
		wantLines int
		wantMin   bool
	}{
		{"ShortWide", "api", 400, 200, 1, false},
		{"LongSplits", "internal/storage/postgres", 160, 120, 2, false},
		{"NoRoom", "internal/storage/postgres", 10, 5, 2, true},
		{"Empty", "", 100, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			font, lines := FitLabel(tt.label, tt.w, tt.h, o)
			if len(lines) != tt.wantLines {
				t.Fatalf("lines = %q, want %d", lines, tt.wantLines)
			}
			if tt.wantMin != (font == o.MinFont) {
				t.Errorf("font = %v, min=%v", font, tt.wantMin)
			}
			if tt.wantMin {
				return
			}
			for _, l := range lines {
				if w := textWidth(l, font, o); w > tt.w*o.Fill {
					t.Errorf("line %q width %v exceeds %v", l, w, tt.w*o.Fill)
				}
			}
			if h := float64(len(lines)) * font * o.LineHeight; h > tt.h*o.Fill {
				t.Errorf("text height %v exceeds %v", h, tt.h*o.Fill)
			}
		})
	}
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		in   string
		want [2]string
	}{
		{"user service", [2]string{"user", "service"}},
		{"pkg/handlers", [2]string{"pkg/", "handlers"}},
		{"abcdef", [2]string{"abc", "def"}},
	}
	for _, tt := range tests {
		got := splitLabel(tt.in)
		if len(got) != 2 || got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("splitLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if splitLabel("x") != nil {
		t.Error("splitLabel(single rune) should be nil")
	}
}
