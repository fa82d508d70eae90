package sim

import "github.com/matzehuels/codemap/pkg/graph"

// Drag moves one pinned subject and carries its tracked descendants along
// by their offsets at drag start. Dragging places a node: it stays pinned
// when the drag ends.
type Drag struct {
	subject *graph.Node
	tracked []*graph.Node
	offsets []graph.Point
	origin  graph.Point
	moved   bool
}

// StartDrag pins n at its current position and records the offset of each
// descendant from it.
func StartDrag(n *graph.Node, descendants []*graph.Node) *Drag {
	n.Pin(n.X, n.Y)
	d := &Drag{subject: n, origin: graph.Point{X: n.X, Y: n.Y}}
	for _, c := range descendants {
		if c == nil || c == n {
			continue
		}
		d.tracked = append(d.tracked, c)
		d.offsets = append(d.offsets, graph.Point{X: c.X - n.X, Y: c.Y - n.Y})
	}
	return d
}

// Subject returns the dragged node.
func (d *Drag) Subject() *graph.Node { return d.subject }

// Move pins the subject at (x, y) and repositions tracked descendants.
// Pinned descendants move their pin; free ones are moved and stilled.
func (d *Drag) Move(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	d.subject.Pin(x, y)
	d.subject.Packed = false
	if x != d.origin.X || y != d.origin.Y {
		d.moved = true
	}
	for i, c := range d.tracked {
		cx, cy := x+d.offsets[i].X, y+d.offsets[i].Y
		if c.IsPinned() {
			c.Pin(cx, cy)
			continue
		}
		c.X, c.Y = cx, cy
		c.VX, c.VY = 0, 0
	}
}

// End finishes the drag, leaving the subject pinned. It reports whether the
// owner should reheat the simulation: a container moved.
func (d *Drag) End() bool {
	return d.moved && d.subject.Kind.IsContainer()
}

// Moved reports whether the subject left its starting position.
func (d *Drag) Moved() bool { return d.moved }
