package mapview

import (
	"sort"

	"eve-starmap/internal/graph"
)

// LightYear in metres. The range circle radius and the distance conversion for
// markers must use this same constant.
const LightYear = 9460730472580800.0

// RangeEntry is one system inside the picked system's range.
type RangeEntry struct {
	SystemID   int32   `json:"system_id"`
	Name       string  `json:"name"`
	LightYears float64 `json:"light_years"`
}

// PickResult describes a selection and what the range overlay shows for it.
type PickResult struct {
	System      *graph.System `json:"-"`
	Name        string        `json:"name"`
	Position    Point         `json:"position"`
	RangeLY     float64       `json:"range_ly"`
	RangeRadius float64       `json:"range_radius"` // canvas units
	InRange     []RangeEntry  `json:"in_range"`     // nearest first
}

// PickEngine resolves canvas points to systems and draws the range overlay.
type PickEngine struct {
	provider GraphProvider
	systems  *Layer
	rng      *Layer
	rangeLY  float64
}

// NewPickEngine wires a picker to the systems layer (hit source) and the range layer (output).
func NewPickEngine(p GraphProvider, systems, rng *Layer, rangeLY float64) *PickEngine {
	return &PickEngine{provider: p, systems: systems, rng: rng, rangeLY: rangeLY}
}

// HitTest returns the topmost system whose glyph contains pt. Only the systems
// layer is consulted.
func (pe *PickEngine) HitTest(pt Point) (*graph.System, bool) {
	id, ok := pe.systems.TopmostAt(pt)
	if !ok {
		return nil, false
	}
	ref, ok := pe.systems.Ref(id)
	if !ok || ref.Kind != RefSystem {
		return nil, false
	}
	return pe.provider.SystemByID(ref.SystemID)
}

// Pick hit-tests pt and rebuilds the range overlay. A miss clears the overlay
// and returns false.
func (pe *PickEngine) Pick(pt Point, m *Mapper) (PickResult, bool) {
	sys, ok := pe.HitTest(pt)
	if !ok {
		pe.rng.Clear()
		return PickResult{}, false
	}
	return pe.Select(sys, m), true
}

// Select rebuilds the range overlay around sys: a reference circle of the
// configured radius, a marker on sys, and a marker on every other system
// strictly inside (0, range) light years.
func (pe *PickEngine) Select(sys *graph.System, m *Mapper) PickResult {
	pe.rng.Clear()

	centre := m.ProjectSystem(sys)
	radius := m.Distance(LightYear * pe.rangeLY)
	pe.rng.Add(Primitive{
		Shape:  ShapeCircle,
		X:      centre.X,
		Y:      centre.Y,
		R:      radius,
		Color:  ColorRange,
		Filled: true,
		Width:  lineWidth,
	}, MarkerRef("range", sys.ID))
	pe.rng.Add(centredRect(centre, markerSize, ColorPicked), MarkerRef("picked", sys.ID))

	res := PickResult{
		System:      sys,
		Name:        sys.Name,
		Position:    centre,
		RangeLY:     pe.rangeLY,
		RangeRadius: radius,
	}
	for _, other := range pe.provider.Systems() {
		ly := pe.provider.Distance(sys.Name, other.Name) / LightYear
		if !(ly > 0 && ly < pe.rangeLY) {
			continue
		}
		pe.rng.Add(centredRect(m.ProjectSystem(other), markerSize, ColorInRange), MarkerRef("in_range", other.ID))
		res.InRange = append(res.InRange, RangeEntry{SystemID: other.ID, Name: other.Name, LightYears: ly})
	}
	sort.SliceStable(res.InRange, func(i, j int) bool {
		return res.InRange[i].LightYears < res.InRange[j].LightYears
	})
	return res
}
