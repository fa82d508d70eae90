package render

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/pack"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/viewport"
)

func sample(t *testing.T, k float64) (*graph.Graph, Scene) {
	t.Helper()
	dir := graph.NewNode("dir:api", graph.KindDirectory)
	dir.Payload = graph.Payload{Label: "api", Color: "#a5b4fc"}
	a := graph.NewNode("a", graph.KindFile)
	a.ParentID = "dir:api"
	a.Payload = graph.Payload{Label: "server.go", Path: "api/server.go"}
	a.Changed = true
	b := graph.NewNode("b", graph.KindFile)
	b.ParentID = "dir:api"
	b.Payload = graph.Payload{Label: "handler<v2>.go", Path: "api/handler.go"}
	ext := graph.NewNode("ext:chi", graph.KindExternal)

	g, stats := graph.Build([]*graph.Node{dir, a, b, ext}, []graph.Edge{
		{Source: "dir:api", Target: "a", Kind: graph.EdgeContains},
		{Source: "dir:api", Target: "b", Kind: graph.EdgeContains},
		{Source: "a", Target: "b", Kind: graph.EdgeCalls},
		{Source: "a", Target: "ext:chi", Kind: graph.EdgeExternalUses},
	})
	if stats.Total() != 0 {
		t.Fatalf("Build() stats = %+v", stats)
	}
	pack.Pack(g, pack.DefaultOptions()).Apply(g)

	vp := viewport.New(1000, 800, viewport.DefaultOptions())
	vp.SetTransform(viewport.Transform{K: k})
	vp.Apply(g)
	return g, Scene{Nodes: g.Nodes, Connectors: route.RouteAll(g, route.DefaultOptions()), Title: "api"}
}

func TestSVG(t *testing.T) {
	_, s := sample(t, 1)
	var buf bytes.Buffer
	if err := SVG(&buf, s, DefaultOptions()); err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<svg", "<title>api</title>", `id="node-dir_api"`, `id="node-a"`,
		`class="leaf changed"`, "server.go", "handler&lt;v2&gt;.go",
		`marker-end="url(#arrow)"`, "fill:#a5b4fc",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG() output missing %q", want)
		}
	}
	if got := strings.Count(out, `data-kind=`); got != len(s.Connectors) {
		t.Errorf("SVG() connectors = %d, want %d", got, len(s.Connectors))
	}
}

func TestSVGCollapsed(t *testing.T) {
	_, s := sample(t, 0.1)
	var buf bytes.Buffer
	if err := SVG(&buf, s, Options{Scale: 0.1}); err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `id="node-a"`) {
		t.Error("SVG() draws a child of a collapsed container")
	}
	if !strings.Contains(out, "text-anchor:middle") {
		t.Error("SVG() collapsed container missing centred label")
	}
}

func TestPNG(t *testing.T) {
	_, s := sample(t, 1)
	var buf bytes.Buffer
	if err := PNG(&buf, s, Options{Scale: 2, Padding: 10}); err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	f := newFrame(s, Options{Scale: 2, Padding: 10})
	if b := img.Bounds(); b.Dx() != f.width || b.Dy() != f.height {
		t.Errorf("PNG() size = %dx%d, want %dx%d", b.Dx(), b.Dy(), f.width, f.height)
	}
}

func TestFrameCapsSize(t *testing.T) {
	n := graph.NewNode("huge", graph.KindFile)
	n.Width, n.Height = 100000, 10
	f := newFrame(Scene{Nodes: []*graph.Node{n}}, Options{Scale: 1})
	if f.width > MaxPixels+1 {
		t.Errorf("newFrame() width = %d, want <= %d", f.width, MaxPixels)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#ff8800", "#ff8800", true},
		{"0a0", "#00aa00", true},
		{"#12345", "", false},
		{"zzzzzz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, ok := parseHex(tt.in)
		if ok != tt.ok || (ok && css(c) != tt.want) {
			t.Errorf("parseHex(%q) = %s, %v, want %s, %v", tt.in, css(c), ok, tt.want, tt.ok)
		}
	}
}

func TestDOT(t *testing.T) {
	g, _ := sample(t, 1)
	dot := DOT(g)

	if !strings.Contains(dot, "digraph codemap") {
		t.Error("DOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, `"a" -> "b"`) {
		t.Error("DOT() output missing call edge")
	}
	if strings.Contains(dot, `"dir:api" -> "a"`) {
		t.Error("DOT() output includes a containment edge")
	}
	if !strings.Contains(dot, "!\"") {
		t.Error("DOT() positions are not pinned")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestGraphvizSVG(t *testing.T) {
	g, _ := sample(t, 1)
	svg, err := GraphvizSVG(context.Background(), DOT(g))
	if err != nil {
		t.Fatalf("GraphvizSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("GraphvizSVG() output missing <svg> tag")
	}
}

func TestGraphvizSVG_InvalidDOT(t *testing.T) {
	if _, err := GraphvizSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("GraphvizSVG() should return error for invalid DOT")
	}
}

func TestToPDFMissingConverter(t *testing.T) {
	old := Converter
	Converter = "codemap-no-such-converter"
	defer func() { Converter = old }()

	if _, err := ToPDF(context.Background(), []byte("<svg/>")); err != ErrNoConverter {
		t.Errorf("ToPDF() error = %v, want ErrNoConverter", err)
	}
}
