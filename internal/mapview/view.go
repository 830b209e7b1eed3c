package mapview

import "math"

// Zoom limits for interactive viewports.
const (
	MinZoom = 0.02
	MaxZoom = 20.0
)

// Viewport maps canvas space to screen space: screen = canvas*Zoom + Offset.
// Zoom is what the LOD controller sees.
type Viewport struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// FitViewport returns a viewport showing the whole canvas centred in a w×h screen.
func FitViewport(canvasSize float64, w, h int) Viewport {
	if canvasSize <= 0 || w <= 0 || h <= 0 {
		return Viewport{Zoom: 1}
	}
	zoom := math.Min(float64(w), float64(h)) / canvasSize
	return Viewport{
		Zoom:    zoom,
		OffsetX: (float64(w) - canvasSize*zoom) / 2,
		OffsetY: (float64(h) - canvasSize*zoom) / 2,
	}
}

// ToCanvas converts a screen point to canvas space.
func (v Viewport) ToCanvas(pt Point) Point {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return Point{X: (pt.X - v.OffsetX) / z, Y: (pt.Y - v.OffsetY) / z}
}

// ToScreen converts a canvas point to screen space.
func (v Viewport) ToScreen(pt Point) Point {
	return Point{X: pt.X*v.Zoom + v.OffsetX, Y: pt.Y*v.Zoom + v.OffsetY}
}

// ZoomAt multiplies zoom by factor, keeping the canvas point under screen
// point anchor fixed. The result is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(anchor Point, factor float64) Viewport {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return v
	}
	c := v.ToCanvas(anchor)
	zoom := math.Max(MinZoom, math.Min(MaxZoom, v.Zoom*factor))
	return Viewport{
		Zoom:    zoom,
		OffsetX: anchor.X - c.X*zoom,
		OffsetY: anchor.Y - c.Y*zoom,
	}
}

// Pan shifts the viewport by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}
