package mapview

import (
	"math"

	"eve-starmap/internal/graph"
)

// DefaultScale is used when the bounds have no usable extent on either axis
// (empty graph, a single system, or all systems stacked on one point).
const DefaultScale = 1.0

// Point is a 2D position, either on the canvas or on screen.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned box over the projected galaxy axes X and Z.
type Bounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	ZMin float64 `json:"z_min"`
	ZMax float64 `json:"z_max"`
}

// SentinelBounds returns an inverted box that any real position widens.
func SentinelBounds() Bounds {
	return Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		ZMin: math.Inf(1), ZMax: math.Inf(-1),
	}
}

func (b Bounds) empty() bool { return b.XMin > b.XMax || b.ZMin > b.ZMax }

func (b *Bounds) extend(x, z float64) {
	if x < b.XMin {
		b.XMin = x
	}
	if x > b.XMax {
		b.XMax = x
	}
	if z < b.ZMin {
		b.ZMin = z
	}
	if z > b.ZMax {
		b.ZMax = z
	}
}

// Contains reports whether (x, z) lies inside the box, edges included.
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.XMin && x <= b.XMax && z >= b.ZMin && z <= b.ZMax
}

// Mapper projects galaxy coordinates onto a square canvas with a uniform scale.
// It is immutable once built; a full rebuild creates a new one.
type Mapper struct {
	Bounds     Bounds  `json:"bounds"`
	Width      float64 `json:"width"`
	Depth      float64 `json:"depth"`
	Scale      float64 `json:"scale"`
	CanvasSize float64 `json:"canvas_size"`

	systemCount int
}

// NewMapper computes bounds over systems starting from seed. Pass SentinelBounds()
// for a box that hugs the data, or a fixed galaxy box to keep the framing
// stable across graph reloads.
func NewMapper(systems []*graph.System, canvasSize float64, seed Bounds) *Mapper {
	b := seed
	for _, s := range systems {
		b.extend(s.Position.X, s.Position.Z)
	}
	if b.XMin > b.XMax {
		b.XMin, b.XMax = 0, 0
	}
	if b.ZMin > b.ZMax {
		b.ZMin, b.ZMax = 0, 0
	}

	m := &Mapper{
		Bounds:      b,
		Width:       b.XMax - b.XMin,
		Depth:       b.ZMax - b.ZMin,
		CanvasSize:  canvasSize,
		systemCount: len(systems),
	}
	m.Scale = uniformScale(canvasSize, m.Width, m.Depth)
	return m
}

// uniformScale picks the smaller per-axis scale so the aspect ratio is kept.
// An axis with no usable extent does not constrain the scale.
func uniformScale(canvas, width, depth float64) float64 {
	scale := math.Inf(1)
	if usable(width) {
		scale = math.Min(scale, canvas/width)
	}
	if usable(depth) {
		scale = math.Min(scale, canvas/depth)
	}
	if math.IsInf(scale, 0) || math.IsNaN(scale) || scale <= 0 {
		return DefaultScale
	}
	return scale
}

func usable(extent float64) bool {
	return extent > 0 && !math.IsInf(extent, 0) && !math.IsNaN(extent)
}

// Project maps galaxy (x, z) to canvas space. Galaxy Z grows the opposite way to
// canvas Y, hence the inversion. Every draw path and the pick path go through here.
func (m *Mapper) Project(x, z float64) Point {
	return Point{
		X: (x - m.Bounds.XMin) * m.Scale,
		Y: (m.Depth - (z - m.Bounds.ZMin)) * m.Scale,
	}
}

// ProjectSystem projects a system's position.
func (m *Mapper) ProjectSystem(s *graph.System) Point {
	return m.Project(s.Position.X, s.Position.Z)
}

// Distance converts a galaxy-space length to canvas units.
func (m *Mapper) Distance(metres float64) float64 {
	return metres * m.Scale
}

// Stale reports whether the bounds no longer describe systems: the set grew or
// shrank, or a system now sits outside the box.
func (m *Mapper) Stale(systems []*graph.System) bool {
	if len(systems) != m.systemCount {
		return true
	}
	for _, s := range systems {
		if !m.Bounds.Contains(s.Position.X, s.Position.Z) {
			return true
		}
	}
	return false
}
