package viewport

import "math"

// Transform maps graph space to screen space: screen = graph*K + (X, Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform with scale 1 and no offset.
var Identity = Transform{K: 1}

// ScreenToGraph maps a screen point to graph space.
func (t Transform) ScreenToGraph(px, py float64) (x, y float64) {
	return (px - t.X) / t.K, (py - t.Y) / t.K
}

// GraphToScreen maps a graph point to screen space.
func (t Transform) GraphToScreen(x, y float64) (px, py float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// ScaleAbout returns the transform with scale k that keeps the screen point
// (px, py) over the same graph point.
func (t Transform) ScaleAbout(k, px, py float64) Transform {
	gx, gy := t.ScreenToGraph(px, py)
	return Transform{K: k, X: px - gx*k, Y: py - gy*k}
}

// Lerp interpolates linearly toward to; e = 0 yields t, e = 1 yields to.
func (t Transform) Lerp(to Transform, e float64) Transform {
	return Transform{
		K: t.K + (to.K-t.K)*e,
		X: t.X + (to.X-t.X)*e,
		Y: t.Y + (to.Y-t.Y)*e,
	}
}

func (t Transform) valid() bool {
	return t.K > 0 && !math.IsInf(t.K, 0) && !math.IsNaN(t.X) && !math.IsNaN(t.Y) &&
		!math.IsInf(t.X, 0) && !math.IsInf(t.Y, 0)
}

// EaseCubicOut is the cubic ease-out curve 1 - (1-e)^3.
func EaseCubicOut(e float64) float64 {
	e = math.Max(0, math.Min(1, e))
	u := 1 - e
	return 1 - u*u*u
}
