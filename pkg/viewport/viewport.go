// Package viewport owns the pan and zoom state of one map panel.
//
// A [Controller] keeps the [Transform] between graph and screen space,
// applies wheel zoom about the cursor, disambiguates node drags from
// background pans, and switches the semantic detail level when the scale
// crosses a threshold. Below the threshold containers render filled with a
// fitted label and their children hide.
package viewport

import (
	"math"
	"time"

	"github.com/matzehuels/codemap/pkg/graph"
)

// Detail is the semantic zoom level.
type Detail int

// Detail levels.
const (
	DetailFull Detail = iota
	DetailCollapsed
)

func (d Detail) String() string {
	if d == DetailCollapsed {
		return "collapsed"
	}
	return "full"
}

// Options holds the viewport constants.
type Options struct {
	MinScale  float64 `toml:"min_scale"`
	MaxScale  float64 `toml:"max_scale"`
	Threshold float64 `toml:"threshold"`
	// WheelFactor converts wheel delta to a power-of-two zoom step.
	WheelFactor float64 `toml:"wheel_factor"`
	FitFraction float64 `toml:"fit_fraction"`
	AnimationMS int     `toml:"animation_ms"`

	Label LabelOptions `toml:"label"`
}

// DefaultOptions returns the default viewport constants.
func DefaultOptions() Options {
	return Options{
		MinScale:    0.1,
		MaxScale:    10,
		Threshold:   0.3,
		WheelFactor: 0.002,
		FitFraction: 0.8,
		AnimationMS: 750,
		Label:       DefaultLabelOptions(),
	}
}

// Animation returns the fit animation duration.
func (o Options) Animation() time.Duration {
	return time.Duration(o.AnimationMS) * time.Millisecond
}

type animation struct {
	from, to Transform
	start    time.Time
	duration time.Duration
}

// PointerTarget says what a pointer-down landed on.
type PointerTarget int

// Pointer targets.
const (
	TargetBackground PointerTarget = iota
	TargetNode
)

// Pointer is the result of a pointer-down hit test.
type Pointer struct {
	Target PointerTarget
	Node   *graph.Node
	// X and Y are the pointer position in graph space.
	X, Y float64
}

// Controller is the viewport state of one panel. It is not safe for
// concurrent use.
type Controller struct {
	opts          Options
	width, height float64
	t             Transform
	applied       Detail
	hasApplied    bool

	anim *animation

	panning    bool
	lastX      float64
	lastY      float64
	tracked    []*graph.Node
	kinds      []graph.Kind
	centered   string
	onCentered []func(*graph.Node, bool)
}

// New creates a controller for a width by height screen at the identity
// transform.
func New(width, height float64, opts Options) *Controller {
	d := DefaultOptions()
	if opts.MinScale <= 0 {
		opts.MinScale = d.MinScale
	}
	if opts.MaxScale < opts.MinScale {
		opts.MaxScale = math.Max(d.MaxScale, opts.MinScale)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = d.Threshold
	}
	if opts.WheelFactor <= 0 {
		opts.WheelFactor = d.WheelFactor
	}
	if opts.FitFraction <= 0 || opts.FitFraction > 1 {
		opts.FitFraction = d.FitFraction
	}
	if opts.AnimationMS <= 0 {
		opts.AnimationMS = d.AnimationMS
	}
	if opts.Label.MinFont <= 0 || opts.Label.MaxFont < opts.Label.MinFont {
		opts.Label = d.Label
	}
	c := &Controller{opts: opts, t: Identity}
	c.SetSize(width, height)
	c.t.K = c.clampScale(1)
	return c
}

// Options returns the controller constants.
func (c *Controller) Options() Options { return c.opts }

// SetSize sets the screen size.
func (c *Controller) SetSize(width, height float64) {
	c.width, c.height = math.Max(width, 1), math.Max(height, 1)
}

// Size returns the screen size.
func (c *Controller) Size() (width, height float64) { return c.width, c.height }

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// SetTransform replaces the transform, clamping the scale. Invalid
// transforms are ignored. It cancels any running animation.
func (c *Controller) SetTransform(t Transform) {
	if !t.valid() {
		return
	}
	t.K = c.clampScale(t.K)
	c.t = t
	c.anim = nil
	c.updateCentered()
}

// ScreenToGraph maps a screen point to graph space.
func (c *Controller) ScreenToGraph(px, py float64) (float64, float64) {
	return c.t.ScreenToGraph(px, py)
}

// GraphToScreen maps a graph point to screen space.
func (c *Controller) GraphToScreen(x, y float64) (float64, float64) {
	return c.t.GraphToScreen(x, y)
}

// Detail returns the detail level of the current scale.
func (c *Controller) Detail() Detail {
	if c.t.K < c.opts.Threshold {
		return DetailCollapsed
	}
	return DetailFull
}

func (c *Controller) clampScale(k float64) float64 {
	return math.Max(c.opts.MinScale, math.Min(c.opts.MaxScale, k))
}

// =============================================================================
// Input
// =============================================================================

// Wheel zooms about the cursor by 2^(-deltaY*WheelFactor). It reports
// whether the detail level changed.
func (c *Controller) Wheel(px, py, deltaY float64) bool {
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return false
	}
	return c.ZoomTo(c.t.K*math.Pow(2, -deltaY*c.opts.WheelFactor), px, py)
}

// ZoomTo sets the scale, keeping the screen point (px, py) fixed. It
// reports whether the detail level changed.
func (c *Controller) ZoomTo(k, px, py float64) bool {
	if !(k > 0) || math.IsInf(k, 0) {
		return false
	}
	before := c.Detail()
	c.t = c.t.ScaleAbout(c.clampScale(k), px, py)
	c.anim = nil
	c.updateCentered()
	return c.Detail() != before
}

// Pan moves the view by a screen delta.
func (c *Controller) Pan(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return
	}
	c.t.X += dx
	c.t.Y += dy
	c.anim = nil
	c.updateCentered()
}

// PointerDown hit-tests the screen point against nodes. Leaves are tested
// before containers, later nodes before earlier ones, and only visible
// interactive nodes count. A miss starts a background pan.
func (c *Controller) PointerDown(px, py float64, nodes []*graph.Node) Pointer {
	x, y := c.t.ScreenToGraph(px, py)
	p := Pointer{Target: TargetBackground, X: x, Y: y}
	for _, leaves := range []bool{true, false} {
		for i := len(nodes) - 1; i >= 0; i-- {
			n := nodes[i]
			if n.Kind.IsLeaf() != leaves || !n.View.Visible || !n.View.Interactive {
				continue
			}
			r := n.Rect()
			if x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom {
				p.Target, p.Node = TargetNode, n
				return p
			}
		}
	}
	c.panning = true
	c.lastX, c.lastY = px, py
	return p
}

// PointerMove pans by the pointer delta while a background pan is active.
// It reports whether the view moved.
func (c *Controller) PointerMove(px, py float64) bool {
	if !c.panning {
		return false
	}
	c.Pan(px-c.lastX, py-c.lastY)
	c.lastX, c.lastY = px, py
	return true
}

// PointerUp ends a background pan.
func (c *Controller) PointerUp() { c.panning = false }

// =============================================================================
// Semantic zoom
// =============================================================================

// Apply writes the view state of every node for the current detail level.
// It reports whether the level differs from the previous Apply.
//
// Collapsed: containers are filled with a fitted label and no header, and
// every node with a container parent is hidden and not interactive. Full:
// containers are outlined with a header and every node is shown.
func (c *Controller) Apply(g *graph.Graph) bool {
	d := c.Detail()
	changed := !c.hasApplied || d != c.applied
	c.applied, c.hasApplied = d, true
	if g == nil {
		return changed
	}

	for _, n := range g.Nodes {
		v := &n.View
		if n.Kind.IsContainer() {
			v.Visible, v.Interactive = true, true
			if d == DetailCollapsed {
				v.Filled, v.HeaderVisible = true, false
				v.LabelFont, v.LabelLines = FitLabel(n.Label(), n.Width, n.Height, c.opts.Label)
			} else {
				v.Filled, v.HeaderVisible = false, true
				v.LabelFont, v.LabelLines = 0, nil
			}
			continue
		}
		v.Filled, v.HeaderVisible = false, false
		v.LabelFont, v.LabelLines = 0, nil
		parent, ok := g.Node(n.ParentID)
		hidden := d == DetailCollapsed && ok && parent.Kind.IsContainer()
		v.Visible, v.Interactive = !hidden, !hidden
	}
	return changed
}

// =============================================================================
// Centring
// =============================================================================

// Centered returns the node of one of the given kinds nearest the graph
// point under the screen centre, among nodes whose half-size exceeds that
// distance. With no kinds, every kind counts.
func (c *Controller) Centered(nodes []*graph.Node, kinds ...graph.Kind) (*graph.Node, bool) {
	cx, cy := c.t.ScreenToGraph(c.width/2, c.height/2)
	var best *graph.Node
	bestDist := math.Inf(1)
	for _, n := range nodes {
		if !n.View.Visible || !matchKind(n.Kind, kinds) {
			continue
		}
		d := math.Hypot(n.X-cx, n.Y-cy)
		if d < n.Radius() && d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, best != nil
}

func matchKind(k graph.Kind, kinds []graph.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// Track sets the nodes scanned for the centred node after every pan, zoom
// and [Controller.Refresh].
func (c *Controller) Track(nodes []*graph.Node, kinds ...graph.Kind) {
	c.tracked, c.kinds = nodes, kinds
	c.updateCentered()
}

// OnCentered registers a listener called when the centred node changes.
// The node is nil and ok false when nothing is centred.
func (c *Controller) OnCentered(fn func(n *graph.Node, ok bool)) {
	c.onCentered = append(c.onCentered, fn)
}

// CenteredID returns the ID of the tracked node last found under the screen
// centre, or "" when none is.
func (c *Controller) CenteredID() string { return c.centered }

// Refresh recomputes the centred node, for use after nodes moved.
func (c *Controller) Refresh() { c.updateCentered() }

func (c *Controller) updateCentered() {
	if c.tracked == nil && c.centered == "" {
		return
	}
	n, ok := c.Centered(c.tracked, c.kinds...)
	id := ""
	if ok {
		id = n.ID
	}
	if id == c.centered {
		return
	}
	c.centered = id
	for _, fn := range c.onCentered {
		fn(n, ok)
	}
}

// =============================================================================
// Fit and animation
// =============================================================================

// Fit returns the transform that centres the nodes' bounding box and scales
// it to the configured fraction of the screen.
func (c *Controller) Fit(nodes []*graph.Node) Transform {
	var visible []*graph.Node
	for _, n := range nodes {
		if n.View.Visible && !math.IsNaN(n.X) && !math.IsNaN(n.Y) {
			visible = append(visible, n)
		}
	}
	r, ok := graph.Bounds(visible)
	if !ok {
		return Transform{K: c.clampScale(1), X: c.width / 2, Y: c.height / 2}
	}
	k := 1.0
	if r.Width() > 0 && r.Height() > 0 {
		k = c.opts.FitFraction * math.Min(c.width/r.Width(), c.height/r.Height())
	}
	k = c.clampScale(k)
	return Transform{K: k, X: c.width/2 - r.CenterX()*k, Y: c.height/2 - r.CenterY()*k}
}

// Animate starts an eased transition to the target transform. A zero
// duration jumps immediately.
func (c *Controller) Animate(to Transform, duration time.Duration, now time.Time) {
	if !to.valid() {
		return
	}
	to.K = c.clampScale(to.K)
	if duration <= 0 {
		c.SetTransform(to)
		return
	}
	c.anim = &animation{from: c.t, to: to, start: now, duration: duration}
}

// Animating reports whether a transition is in progress.
func (c *Controller) Animating() bool { return c.anim != nil }

// Step advances a running transition to now with cubic ease-out. It
// reports whether the transition is still running.
func (c *Controller) Step(now time.Time) bool {
	if c.anim == nil {
		return false
	}
	e := float64(now.Sub(c.anim.start)) / float64(c.anim.duration)
	c.t = c.anim.from.Lerp(c.anim.to, EaseCubicOut(e))
	if e >= 1 {
		c.t = c.anim.to
		c.anim = nil
	}
	c.updateCentered()
	return c.anim != nil
}
