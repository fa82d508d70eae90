package engine

import (
	"context"
	"time"

	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/sim"
	"github.com/matzehuels/codemap/pkg/viewport"
)

// =============================================================================
// Drag
// =============================================================================

// DragStart makes the node the drag subject, pinning it where it is.
// Containers carry their descendants. An active drag is ended first.
func (e *Engine) DragStart(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.g.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	if e.drag != nil {
		e.endDragLocked(ctx)
	}
	var tracked []*graph.Node
	if n.Kind.IsContainer() {
		tracked = e.g.Descendants(id)
	}
	e.drag = sim.StartDrag(n, tracked)
	return nil
}

// DragMove moves the drag subject to the graph point (x, y). Without an
// active drag it does nothing and reports false.
func (e *Engine) DragMove(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return false
	}
	e.drag.Move(x, y)
	if e.sim == nil || !e.sim.Running() {
		e.publishLocked()
	}
	return true
}

// DragEnd releases the gesture. The subject stays pinned. A moved
// container has its position saved under its path and the simulation
// reheated.
func (e *Engine) DragEnd(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return false
	}
	e.endDragLocked(ctx)
	return true
}

func (e *Engine) endDragLocked(ctx context.Context) {
	d := e.drag
	e.drag = nil
	n := d.Subject()
	if !d.End() {
		return
	}
	if p, ok := n.Pinned(); ok {
		if err := e.store.Save(ctx, n.PositionKey(), p); err != nil {
			e.logger.Warn("save position failed", "node", n.ID, "key", n.PositionKey(), "err", err)
		}
	}
	if e.sim != nil {
		e.sim.Reheat(e.cfg.Simulation.ReheatAlpha)
	}
	e.publishLocked()
}

// Dragging returns the drag subject's id.
func (e *Engine) Dragging() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return "", false
	}
	return e.drag.Subject().ID, true
}

// =============================================================================
// Pointer
// =============================================================================

// PointerDown hit-tests a screen point. A node hit starts a drag on it; a
// miss starts a background pan.
func (e *Engine) PointerDown(ctx context.Context, px, py float64) viewport.Pointer {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.view.PointerDown(px, py, e.g.Nodes)
	if p.Target != viewport.TargetNode {
		return p
	}
	if e.drag != nil {
		e.endDragLocked(ctx)
	}
	var tracked []*graph.Node
	if p.Node.Kind.IsContainer() {
		tracked = e.g.Descendants(p.Node.ID)
	}
	e.drag = sim.StartDrag(p.Node, tracked)
	return p
}

// PointerMove continues a node drag or a background pan.
func (e *Engine) PointerMove(px, py float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag != nil {
		x, y := e.view.ScreenToGraph(px, py)
		e.drag.Move(x, y)
		if e.sim == nil || !e.sim.Running() {
			e.publishLocked()
		}
		return
	}
	if e.view.PointerMove(px, py) {
		e.publishLocked()
	}
}

// PointerUp ends the drag or pan.
func (e *Engine) PointerUp(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.PointerUp()
	if e.drag != nil {
		e.endDragLocked(ctx)
	}
}

// =============================================================================
// Viewport
// =============================================================================

// Wheel zooms about a screen point. A detail change republishes the frame.
func (e *Engine) Wheel(px, py, deltaY float64) viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.Wheel(px, py, deltaY) {
		e.publishLocked()
	}
	return e.view.Transform()
}

// Zoom sets the scale about a screen point.
func (e *Engine) Zoom(k, px, py float64) viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.ZoomTo(k, px, py) {
		e.publishLocked()
	}
	return e.view.Transform()
}

// Pan moves the view by a screen delta.
func (e *Engine) Pan(dx, dy float64) viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Pan(dx, dy)
	return e.view.Transform()
}

// SetTransform replaces the view transform, republishing on a detail change.
func (e *Engine) SetTransform(t viewport.Transform) viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.view.Detail()
	e.view.SetTransform(t)
	if e.view.Detail() != before {
		e.publishLocked()
	}
	return e.view.Transform()
}

// Fit frames every visible node. With animate the view eases there over
// the configured duration and [Engine.Step] advances it.
func (e *Engine) Fit(animate bool) viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	to := e.view.Fit(e.g.Nodes)
	if animate {
		e.view.Animate(to, e.view.Options().Animation(), e.now())
		return to
	}
	before := e.view.Detail()
	e.view.SetTransform(to)
	if e.view.Detail() != before {
		e.publishLocked()
	}
	return e.view.Transform()
}

// Step advances a fit animation to now. It reports whether the animation
// is still running.
func (e *Engine) Step(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.view.Detail()
	running := e.view.Step(now)
	if e.view.Detail() != before {
		e.publishLocked()
	}
	return running
}

// SetSize resizes the viewport.
func (e *Engine) SetSize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.SetSize(w, h)
	e.view.Refresh()
}

// Transform returns the view transform.
func (e *Engine) Transform() viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Transform()
}

// Centered returns the container under the screen centre.
func (e *Engine) Centered() (NodeCentered, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.view.Centered(e.g.Nodes, graph.KindComponent, graph.KindDirectory)
	if !ok {
		return NodeCentered{}, false
	}
	return centeredPayload(n), true
}
