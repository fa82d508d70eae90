package graph

import "math"

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Kind identifies what a node represents on the map.
type Kind string

// Node kinds.
const (
	KindComponent Kind = "component"
	KindFile      Kind = "file"
	KindExternal  Kind = "external"
	KindDirectory Kind = "directory"
)

// IsContainer reports whether nodes of this kind hold other nodes.
func (k Kind) IsContainer() bool { return k == KindComponent || k == KindDirectory }

// IsLeaf reports whether nodes of this kind are rendered inside containers
// and act as connector obstacles.
func (k Kind) IsLeaf() bool { return k == KindFile || k == KindExternal }

// EdgeKind identifies the relationship an edge encodes. The set is open:
// unknown kinds fall back to default force parameters.
type EdgeKind string

// Edge kinds.
const (
	EdgeContains     EdgeKind = "contains"
	EdgeImports      EdgeKind = "imports"
	EdgeCalls        EdgeKind = "calls"
	EdgeInherits     EdgeKind = "inherits"
	EdgeDefines      EdgeKind = "defines"
	EdgeUses         EdgeKind = "uses"
	EdgeExternalUses EdgeKind = "external-uses"
)

// Default box sizes per kind, in graph units.
var defaultSizes = map[Kind]Size{
	KindComponent: {Width: 160, Height: 80},
	KindDirectory: {Width: 140, Height: 70},
	KindFile:      {Width: 120, Height: 24},
	KindExternal:  {Width: 100, Height: 20},
}

// DefaultSize returns the default box size for a node kind.
func DefaultSize(k Kind) Size {
	if s, ok := defaultSizes[k]; ok {
		return s
	}
	return Size{Width: 40, Height: 40}
}

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in graph space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a box extent in graph space.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Rect is an axis-aligned rectangle. Y grows downward.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectAt returns the rectangle of the given size centred on (cx, cy).
func RectAt(cx, cy, w, h float64) Rect {
	return Rect{Left: cx - w/2, Top: cy - h/2, Right: cx + w/2, Bottom: cy + h/2}
}

// Width returns the horizontal span.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// CenterX returns the horizontal centre.
func (r Rect) CenterX() float64 { return (r.Left + r.Right) / 2 }

// CenterY returns the vertical centre.
func (r Rect) CenterY() float64 { return (r.Top + r.Bottom) / 2 }

// Expand grows the rectangle by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{Left: r.Left - m, Top: r.Top - m, Right: r.Right + m, Bottom: r.Bottom + m}
}

// Intersects reports whether two rectangles overlap with positive area.
// Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// =============================================================================
// Node
// =============================================================================

// Orbit is a fixed polar offset of a child from its parent's live position.
type Orbit struct {
	Angle  float64 `json:"angle"`
	Radius float64 `json:"radius"`
}

// Metrics carries code-smell numbers reported by the indexer.
type Metrics struct {
	Score             float64 `json:"score"`
	FunctionCount     int     `json:"functionCount"`
	AvgFunctionLength float64 `json:"avgFunctionLength"`
	MaxFunctionLength int     `json:"maxFunctionLength"`
	MaxNestingDepth   int     `json:"maxNestingDepth"`
	ImportCount       int     `json:"importCount"`
}

// Payload is display data carried through the engine untouched.
type Payload struct {
	Label    string   `json:"label,omitempty"`
	Path     string   `json:"path,omitempty"`
	Lang     string   `json:"lang,omitempty"`
	Color    string   `json:"color,omitempty"`
	Category string   `json:"category,omitempty"`
	Metrics  *Metrics `json:"metrics,omitempty"`
}

// View is the render state derived from the current zoom level.
// Only the viewport controller writes it.
type View struct {
	Visible       bool     `json:"visible"`
	Filled        bool     `json:"filled,omitempty"`
	HeaderVisible bool     `json:"headerVisible,omitempty"`
	Interactive   bool     `json:"interactive"`
	LabelFont     float64  `json:"labelFont,omitempty"`
	LabelLines    []string `json:"labelLines,omitempty"`
}

// Node is a positioned element of the map. X and Y locate the centre of the
// node's box. FX and FY, when both set, pin the node: the simulation treats
// it as a fixed anchor.
type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	VX       float64  `json:"vx,omitempty"`
	VY       float64  `json:"vy,omitempty"`
	FX       *float64 `json:"fx,omitempty"`
	FY       *float64 `json:"fy,omitempty"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Depth    int      `json:"depth,omitempty"`
	ParentID string   `json:"parentId,omitempty"`
	Orbit    *Orbit   `json:"orbit,omitempty"`

	// Overflow marks a low-priority box placed after the main packing pass.
	Overflow bool `json:"overflow,omitempty"`
	// Changed marks a file touched in the active change session.
	Changed bool `json:"changed,omitempty"`
	// Packed marks a pin written by the packing layout rather than by a
	// drag or a position store. Packed pins are not carried across updates.
	Packed bool `json:"-"`

	View    View    `json:"view"`
	Payload Payload `json:"payload"`
}

// NewNode creates a node with the default size for its kind and a visible view.
func NewNode(id string, kind Kind) *Node {
	s := DefaultSize(kind)
	return &Node{
		ID:     id,
		Kind:   kind,
		Width:  s.Width,
		Height: s.Height,
		View:   View{Visible: true, Interactive: true, HeaderVisible: kind.IsContainer()},
	}
}

// Label returns the display label, falling back to the ID.
func (n *Node) Label() string {
	if n.Payload.Label != "" {
		return n.Payload.Label
	}
	return n.ID
}

// IsPinned reports whether the node has a fixed position.
func (n *Node) IsPinned() bool { return n.FX != nil && n.FY != nil }

// Pin fixes the node at (x, y) and moves it there.
func (n *Node) Pin(x, y float64) {
	n.FX, n.FY = &x, &y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
}

// Unpin releases a fixed position. The node keeps its current coordinates.
func (n *Node) Unpin() { n.FX, n.FY = nil, nil }

// Pinned returns the fixed position, if any.
func (n *Node) Pinned() (Point, bool) {
	if !n.IsPinned() {
		return Point{}, false
	}
	return Point{X: *n.FX, Y: *n.FY}, true
}

// Placed reports whether the node has been given a position. The origin
// counts as unset, so fresh nodes get an initial position from the simulation.
func (n *Node) Placed() bool { return n.IsPinned() || n.X != 0 || n.Y != 0 }

// PositionKey returns the key a persisted position is stored under: the
// payload path when set, the ID otherwise.
func (n *Node) PositionKey() string {
	if n.Payload.Path != "" {
		return n.Payload.Path
	}
	return n.ID
}

// Rect returns the node's bounding box.
func (n *Node) Rect() Rect { return RectAt(n.X, n.Y, n.Width, n.Height) }

// Radius returns the radius of the circle enclosing half the box's larger
// side, used as the node's hit-test extent.
func (n *Node) Radius() float64 { return math.Max(n.Width, n.Height) / 2 }

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed relationship between two nodes.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight,omitempty"`
}

// EffectiveWeight returns the weight used for spring strength. A zero or
// negative weight counts as unset and yields 1.
func (e Edge) EffectiveWeight() float64 {
	if e.Weight <= 0 {
		return 1
	}
	return e.Weight
}
