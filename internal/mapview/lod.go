package mapview

import (
	"fmt"
	"math"
)

// LODState is which label layer the current zoom shows.
type LODState uint8

const (
	DetailView   LODState = iota // per-system labels
	OverviewView                 // per-region labels
)

func (s LODState) String() string {
	if s == OverviewView {
		return "overview"
	}
	return "detail"
}

// MarshalText encodes the state by name in JSON.
func (s LODState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts "detail" or "overview".
func (s *LODState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "detail":
		*s = DetailView
	case "overview":
		*s = OverviewView
	default:
		return fmt.Errorf("unknown LOD state %q", b)
	}
	return nil
}

// LODController swaps the label layers as zoom crosses a threshold.
type LODController struct {
	scene     *Scene
	threshold float64
	state     LODState
	zoom      float64
}

// NewLODController creates a controller at zoom 1. Nothing is attached until
// the first ZoomChanged.
func NewLODController(scene *Scene, threshold float64) *LODController {
	return &LODController{scene: scene, threshold: threshold, zoom: 1}
}

// ZoomChanged moves to the state for zoom and fixes label attachment. Returns
// true if any layer was attached or detached; repeating a zoom is a no-op.
// Non-finite zoom values are ignored.
func (c *LODController) ZoomChanged(zoom float64) bool {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return false
	}
	c.zoom = zoom
	if zoom < c.threshold {
		c.state = OverviewView
	} else {
		c.state = DetailView
	}
	return c.apply()
}

func (c *LODController) apply() bool {
	show, hide := LayerSystemLabels, LayerRegionLabels
	if c.state == OverviewView {
		show, hide = LayerRegionLabels, LayerSystemLabels
	}
	changed := false
	if c.scene.IsAttached(hide) {
		changed = c.scene.Detach(hide) || changed
	}
	if !c.scene.IsAttached(show) {
		changed = c.scene.Attach(show) || changed
	}
	return changed
}

// State returns the current view state.
func (c *LODController) State() LODState { return c.state }

// Zoom returns the last zoom level seen.
func (c *LODController) Zoom() float64 { return c.zoom }

// Threshold returns the zoom level at which the detail view begins.
func (c *LODController) Threshold() float64 { return c.threshold }
