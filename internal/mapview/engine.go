// Package mapview turns a read-only galaxy graph into a layered 2D scene that
// can be drawn by any backend and queried by canvas point.
//
// The engine is single-threaded. Hosts must serialise every call, including
// the ones that mutate system counters on the provider side.
package mapview

import (
	"errors"
	"math"

	"eve-starmap/internal/config"
	"eve-starmap/internal/graph"
)

// ErrNoProvider is returned by Initialize when the engine was built without a graph.
var ErrNoProvider = errors.New("mapview: nil graph provider")

// Options fixes the engine's geometry. They are read once at construction.
type Options struct {
	CanvasSize      float64
	LODThreshold    float64
	RangeLightYears float64
	// Seed is the starting box for bounds computation. SentinelBounds() hugs
	// the data; a fixed galaxy box keeps framing stable across reloads.
	Seed Bounds
}

// DefaultOptions returns a 5000 unit canvas, LOD at 0.8 and a 7 LY range.
func DefaultOptions() Options {
	return Options{
		CanvasSize:      5000,
		LODThreshold:    0.8,
		RangeLightYears: 7,
		Seed:            SentinelBounds(),
	}
}

// OptionsFromConfig copies the geometry settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	o := DefaultOptions()
	if cfg == nil {
		return o
	}
	o.CanvasSize = cfg.CanvasSize
	o.LODThreshold = cfg.LODZoomThreshold
	o.RangeLightYears = cfg.RangeLightYears
	return o
}

// Stats summarises the current scene.
type Stats struct {
	Systems        int      `json:"systems"`
	Links          int      `json:"links"`
	SkippedJumps   int      `json:"skipped_jumps"`
	SkippedBridges int      `json:"skipped_bridges"`
	OverlayGlyphs  int      `json:"overlay_glyphs"`
	RangeMarkers   int      `json:"range_markers"`
	Primitives     int      `json:"primitives"`
	Metric         Metric   `json:"metric"`
	LOD            LODState `json:"lod"`
	Zoom           float64  `json:"zoom"`
	BoundsStale    bool     `json:"bounds_stale"`
}

// Engine owns the scene and applies refresh, zoom and pick events to it.
type Engine struct {
	provider GraphProvider
	opts     Options

	scene  *Scene
	lod    *LODController
	picker *PickEngine
	mapper *Mapper
	links  LinkSet

	metric       Metric
	overlayScale float64
	showBridges  bool

	dirty      bool
	linksDirty bool

	selected       *graph.System
	lastPick       PickResult
	overlayCount   int
	bridgesSkipped int
	initialized    bool
}

// NewEngine creates an engine over p. Nothing is built until Initialize.
func NewEngine(p GraphProvider, opts Options) *Engine {
	if opts.CanvasSize <= 0 {
		opts.CanvasSize = DefaultOptions().CanvasSize
	}
	if opts.LODThreshold <= 0 {
		opts.LODThreshold = DefaultOptions().LODThreshold
	}
	scene := NewScene()
	return &Engine{
		provider:     p,
		opts:         opts,
		scene:        scene,
		lod:          NewLODController(scene, opts.LODThreshold),
		picker:       NewPickEngine(p, scene.Layer(LayerSystems), scene.Layer(LayerRange), opts.RangeLightYears),
		overlayScale: 1,
		showBridges:  true,
	}
}

// Initialize computes bounds, deduplicates links and draws every layer. The
// label layer for the current zoom is attached.
func (e *Engine) Initialize() error {
	if e.provider == nil {
		return ErrNoProvider
	}
	e.Refresh(true)
	e.lod.ZoomChanged(e.lod.Zoom())
	e.initialized = true
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (e *Engine) Initialized() bool { return e.initialized }

// Refresh rebuilds the overlay layer. With full set, bounds, links and every
// static layer are rebuilt first and an active selection is redrawn against
// the new mapping.
func (e *Engine) Refresh(full bool) {
	if e.provider == nil {
		return
	}
	systems := e.provider.Systems()
	if full || e.mapper == nil {
		e.mapper = NewMapper(systems, e.opts.CanvasSize, e.opts.Seed)
		e.links = DedupLinks(e.provider)
		buildSystems(e.scene.Layer(LayerSystems), e.scene.Layer(LayerSystemLabels), systems, e.mapper)
		buildRegionLabels(e.scene.Layer(LayerRegionLabels), e.provider.Regions(), e.mapper)
		e.linksDirty = true
		e.reselect()
	}
	if e.linksDirty {
		e.bridgesSkipped = buildLinks(e.scene.Layer(LayerLinks), e.links.Links, e.provider, e.mapper, e.showBridges)
		e.linksDirty = false
	}
	e.overlayCount = buildOverlay(e.scene.Layer(LayerData), systems, e.metric, e.overlayScale, e.mapper)
	e.dirty = false
}

// reselect redraws the range layer for the current selection, or clears it if
// the system is gone.
func (e *Engine) reselect() {
	if e.selected == nil {
		return
	}
	sys, ok := e.provider.SystemByID(e.selected.ID)
	if !ok {
		e.ClearSelection()
		return
	}
	e.selected = sys
	e.lastPick = e.picker.Select(sys, e.mapper)
}

// Sync applies pending property changes now. Returns false if nothing was pending.
func (e *Engine) Sync() bool {
	if !e.dirty {
		return false
	}
	e.Refresh(false)
	return true
}

// Dirty reports whether a property changed since the last refresh.
func (e *Engine) Dirty() bool { return e.dirty }

// BoundsStale reports whether the provider's systems no longer fit the
// bounds computed at the last full rebuild.
func (e *Engine) BoundsStale() bool {
	if e.mapper == nil {
		return true
	}
	return e.mapper.Stale(e.provider.Systems())
}

// Pick resolves a canvas point to a system and rebuilds the range layer. A
// miss clears the selection.
func (e *Engine) Pick(pt Point) (PickResult, bool) {
	if e.mapper == nil {
		return PickResult{}, false
	}
	res, ok := e.picker.Pick(pt, e.mapper)
	if !ok {
		e.selected = nil
		e.lastPick = PickResult{}
		return res, false
	}
	e.selected = res.System
	e.lastPick = res
	return res, true
}

// SelectSystem selects a system by name as if its glyph had been picked.
func (e *Engine) SelectSystem(name string) (PickResult, bool) {
	if e.mapper == nil {
		return PickResult{}, false
	}
	sys, ok := e.provider.System(name)
	if !ok {
		return PickResult{}, false
	}
	e.selected = sys
	e.lastPick = e.picker.Select(sys, e.mapper)
	return e.lastPick, true
}

// ClearSelection empties the range layer.
func (e *Engine) ClearSelection() {
	e.scene.Layer(LayerRange).Clear()
	e.selected = nil
	e.lastPick = PickResult{}
}

// Selected returns the last pick result, if a system is selected.
func (e *Engine) Selected() (PickResult, bool) {
	return e.lastPick, e.selected != nil
}

// ZoomChanged forwards a zoom level to the LOD controller. Returns true if
// label attachment changed.
func (e *Engine) ZoomChanged(zoom float64) bool { return e.lod.ZoomChanged(zoom) }

// Zoom returns the last zoom level seen.
func (e *Engine) Zoom() float64 { return e.lod.Zoom() }

// LOD returns the current level-of-detail state.
func (e *Engine) LOD() LODState { return e.lod.State() }

// Metric returns the active overlay metric.
func (e *Engine) Metric() Metric { return e.metric }

// SetMetric selects the overlay metric. Any previous selection is replaced.
func (e *Engine) SetMetric(m Metric) {
	if m == e.metric {
		return
	}
	e.metric = m
	e.dirty = true
}

func (e *Engine) setShown(m Metric, on bool) {
	switch {
	case on:
		e.SetMetric(m)
	case e.metric == m:
		e.SetMetric(MetricNone)
	}
}

func (e *Engine) ShowNPCKills() bool      { return e.metric == MetricNPCKills }
func (e *Engine) SetShowNPCKills(on bool) { e.setShown(MetricNPCKills, on) }

func (e *Engine) ShowPodKills() bool      { return e.metric == MetricPodKills }
func (e *Engine) SetShowPodKills(on bool) { e.setShown(MetricPodKills, on) }

func (e *Engine) ShowShipKills() bool      { return e.metric == MetricShipKills }
func (e *Engine) SetShowShipKills(on bool) { e.setShown(MetricShipKills, on) }

func (e *Engine) ShowShipJumps() bool      { return e.metric == MetricShipJumps }
func (e *Engine) SetShowShipJumps(on bool) { e.setShown(MetricShipJumps, on) }

// OverlayScale returns the user multiplier applied to every metric.
func (e *Engine) OverlayScale() float64 { return e.overlayScale }

// SetOverlayScale sets the user multiplier. Negative and non-finite values become 0.
func (e *Engine) SetOverlayScale(s float64) {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		s = 0
	}
	if s == e.overlayScale {
		return
	}
	e.overlayScale = s
	e.dirty = true
}

// ShowJumpBridges reports whether jump bridges are drawn.
func (e *Engine) ShowJumpBridges() bool { return e.showBridges }

// SetShowJumpBridges toggles jump bridges. The links layer is redrawn on the next refresh.
func (e *Engine) SetShowJumpBridges(on bool) {
	if on == e.showBridges {
		return
	}
	e.showBridges = on
	e.linksDirty = true
	e.dirty = true
}

// Scene returns the engine's scene. Callers must treat it as read-only.
func (e *Engine) Scene() *Scene { return e.scene }

// Mapper returns the projection from the last full rebuild, or nil before Initialize.
func (e *Engine) Mapper() *Mapper { return e.mapper }

// Links returns the deduplicated gate links.
func (e *Engine) Links() LinkSet { return e.links }

// OverlayCount returns the number of glyphs drawn by the last refresh.
func (e *Engine) OverlayCount() int { return e.overlayCount }

// Stats summarises the scene for status reporting.
func (e *Engine) Stats() Stats {
	st := Stats{
		Links:          len(e.links.Links),
		SkippedJumps:   e.links.Skipped,
		SkippedBridges: e.bridgesSkipped,
		OverlayGlyphs:  e.overlayCount,
		RangeMarkers:   len(e.lastPick.InRange),
		Primitives:     e.scene.Primitives(),
		Metric:         e.metric,
		LOD:            e.lod.State(),
		Zoom:           e.lod.Zoom(),
		BoundsStale:    e.BoundsStale(),
	}
	if e.provider != nil {
		st.Systems = len(e.provider.Systems())
	}
	return st
}
