package render

import (
	"image/png"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/route"
)

// PNG rasterises the scene. Labels use a fixed 7x13 bitmap face, so text
// does not scale with the image.
func PNG(w io.Writer, s Scene, o Options) error {
	f := newFrame(s, o)
	dc := gg.NewContext(f.width, f.height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	nodes := drawOrder(s.Nodes)
	for _, n := range nodes {
		if n.Kind.IsContainer() {
			pngContainer(dc, f, n)
		}
	}
	dc.SetColor(colorConnector)
	dc.SetLineWidth(math.Max(1, 1.5*f.scale))
	for _, c := range s.Connectors {
		pngConnector(dc, f, c.Path)
	}
	for _, n := range nodes {
		if !n.Kind.IsContainer() {
			pngLeaf(dc, f, n)
		}
	}
	return png.Encode(w, dc.Image())
}

func pngContainer(dc *gg.Context, f frame, n *graph.Node) {
	x, y, w, h := f.box(n)
	c := fill(n)
	if !n.View.Filled {
		c.A = 0x60
	}
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.Fill()
	sc, sw := stroke(n)
	dc.SetColor(sc)
	dc.SetLineWidth(sw)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.Stroke()

	dc.SetColor(colorText)
	if n.View.Filled {
		lines := n.View.LabelLines
		if len(lines) == 0 {
			lines = []string{n.Label()}
		}
		top := y + h/2 - float64(len(lines)-1)*8
		for i, line := range lines {
			dc.DrawStringAnchored(fitText(line, w-8, charWidth), x+w/2, top+float64(i)*16, 0.5, 0.5)
		}
		return
	}
	if n.View.HeaderVisible {
		hh := math.Min(headerHeight*f.scale, h)
		dc.SetColor(colorHeader)
		dc.DrawRectangle(x, y, w, hh)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(fitText(n.Label(), w-12, charWidth), x+6, y+hh/2, 0, 0.5)
	}
}

func pngLeaf(dc *gg.Context, f frame, n *graph.Node) {
	x, y, w, h := f.box(n)
	dc.SetColor(fill(n))
	dc.DrawRoundedRectangle(x, y, w, h, 4)
	dc.Fill()
	sc, sw := stroke(n)
	dc.SetColor(sc)
	dc.SetLineWidth(sw)
	dc.DrawRoundedRectangle(x, y, w, h, 4)
	dc.Stroke()
	if label := fitText(n.Label(), w-8, charWidth); label != "" && h >= 13 {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(label, x+w/2, y+h/2, 0.5, 0.5)
	}
}

func pngConnector(dc *gg.Context, f frame, p route.Path) {
	if p.Empty() {
		return
	}
	for i, pt := range p.Points {
		if i == 0 {
			dc.MoveTo(f.x(pt.X), f.y(pt.Y))
		} else {
			dc.LineTo(f.x(pt.X), f.y(pt.Y))
		}
	}
	dc.Stroke()

	// Arrow head along the last leg.
	a, b := p.Points[len(p.Points)-2], p.Points[len(p.Points)-1]
	angle := math.Atan2(b.Y-a.Y, b.X-a.X)
	tx, ty := f.x(b.X), f.y(b.Y)
	const size = 7.0
	dc.NewSubPath()
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-size*math.Cos(angle-0.45), ty-size*math.Sin(angle-0.45))
	dc.LineTo(tx-size*math.Cos(angle+0.45), ty-size*math.Sin(angle+0.45))
	dc.ClosePath()
	dc.Fill()
}
