package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/codemap/pkg/graph"
)

const (
	headerHeight = 22.0
	fontSize     = 12.0
	charWidth    = 7.0
)

// SVG draws the scene as a standalone SVG document.
func SVG(w io.Writer, s Scene, o Options) error {
	f := newFrame(s, o)
	canvas := svg.New(w)
	canvas.Start(f.width, f.height)
	if s.Title != "" {
		canvas.Title(s.Title)
	}
	canvas.Def()
	canvas.Marker("arrow", 8, 4, 8, 8, `orient="auto"`)
	canvas.Path("M0,0 L8,4 L0,8 z", "fill:"+css(colorConnector))
	canvas.MarkerEnd()
	canvas.DefEnd()
	canvas.Rect(0, 0, f.width, f.height, "fill:"+css(colorBackdrop))

	nodes := drawOrder(s.Nodes)
	var leaves []*graph.Node
	for _, n := range nodes {
		if n.Kind.IsContainer() {
			svgContainer(canvas, f, n)
		} else {
			leaves = append(leaves, n)
		}
	}

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", css(colorConnector), math.Max(1, 1.5*f.scale)))
	for _, c := range s.Connectors {
		if c.Path.Empty() {
			continue
		}
		canvas.Path(f.pathData(c.Path), `marker-end="url(#arrow)"`, fmt.Sprintf(`data-kind="%s"`, c.Edge.Kind))
	}
	canvas.Gend()

	for _, n := range leaves {
		svgLeaf(canvas, f, n)
	}
	canvas.End()
	return nil
}

func svgContainer(canvas *svg.SVG, f frame, n *graph.Node) {
	x, y, w, h := f.box(n)
	sc, sw := stroke(n)
	ix, iy, iw, ih := int(x), int(y), int(w), int(h)

	canvas.Group(fmt.Sprintf(`id="%s"`, svgID(n.ID)), `class="container"`)
	if n.View.Filled {
		canvas.Roundrect(ix, iy, iw, ih, 8, 8,
			fmt.Sprintf("fill:%s;fill-opacity:0.9;stroke:%s;stroke-width:%.1f", css(fill(n)), css(sc), sw))
		font := n.View.LabelFont * f.scale
		lines := n.View.LabelLines
		if len(lines) == 0 {
			lines = []string{n.Label()}
		}
		if font < 4 {
			font = math.Max(4, math.Min(h/3, fontSize))
		}
		top := y + h/2 - font*float64(len(lines)-1)*0.6
		for i, line := range lines {
			canvas.Text(int(x+w/2), int(top+float64(i)*font*1.2+font/3), line,
				fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:sans-serif;font-weight:bold;text-anchor:middle", css(colorText), font))
		}
		canvas.Gend()
		return
	}

	canvas.Roundrect(ix, iy, iw, ih, 8, 8,
		fmt.Sprintf("fill:%s;fill-opacity:0.35;stroke:%s;stroke-width:%.1f", css(fill(n)), css(sc), sw))
	if n.View.HeaderVisible {
		hh := math.Min(headerHeight*f.scale, h)
		canvas.Rect(ix, iy, iw, int(hh), "fill:"+css(colorHeader))
		if label := fitText(n.Label(), w-12, charWidth*f.scale); label != "" {
			canvas.Text(ix+6, int(y+hh*0.7), label,
				fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;font-weight:bold", css(colorText), fontSize*f.scale))
		}
	}
	canvas.Gend()
}

func svgLeaf(canvas *svg.SVG, f frame, n *graph.Node) {
	x, y, w, h := f.box(n)
	sc, sw := stroke(n)
	class := `class="leaf"`
	if n.Changed {
		class = `class="leaf changed"`
	}
	canvas.Group(fmt.Sprintf(`id="%s"`, svgID(n.ID)), class)
	if n.Payload.Path != "" {
		canvas.Title(n.Payload.Path)
	}
	canvas.Roundrect(int(x), int(y), int(w), int(h), 4, 4,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", css(fill(n)), css(sc), sw))
	if label := fitText(n.Label(), w-8, charWidth*f.scale); label != "" {
		canvas.Text(int(x+w/2), int(y+h/2+fontSize*f.scale/3), label,
			fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;text-anchor:middle", css(colorText), fontSize*f.scale))
	}
	canvas.Gend()
}

// svgID makes a node id safe for an XML attribute.
func svgID(id string) string {
	b := []byte("node-")
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			b = append(b, c)
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}
