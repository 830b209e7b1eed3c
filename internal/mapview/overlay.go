package mapview

import (
	"fmt"
	"strings"

	"eve-starmap/internal/graph"
)

// OverlayThreshold is the smallest glyph radius worth drawing. A system is
// drawn only when its data scale is strictly greater.
const OverlayThreshold = 3.0

// Metric selects which live counter drives the data overlay.
type Metric uint8

const (
	MetricNone Metric = iota
	MetricNPCKills
	MetricPodKills
	MetricShipKills
	MetricShipJumps
)

// Metrics lists every selectable metric except MetricNone.
var Metrics = []Metric{MetricNPCKills, MetricPodKills, MetricShipKills, MetricShipJumps}

var metricNames = map[Metric]string{
	MetricNone:      "none",
	MetricNPCKills:  "npc_kills",
	MetricPodKills:  "pod_kills",
	MetricShipKills: "ship_kills",
	MetricShipJumps: "ship_jumps",
}

func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}
	return fmt.Sprintf("metric(%d)", m)
}

// MarshalText encodes the metric by name in JSON.
func (m Metric) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText accepts the names produced by String.
func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMetric parses a metric name. An empty string means MetricNone.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MetricNone, nil
	}
	for m, name := range metricNames {
		if name == s {
			return m, nil
		}
	}
	return MetricNone, fmt.Errorf("unknown overlay metric %q", s)
}

// Weight is the calibration factor that brings the metric's typical hourly
// magnitude to a comparable glyph size.
func (m Metric) Weight() float64 {
	switch m {
	case MetricNPCKills:
		return 0.05
	case MetricPodKills:
		return 2
	case MetricShipKills:
		return 8
	case MetricShipJumps:
		return 0.1
	}
	return 0
}

// Value reads the metric's counter.
func (m Metric) Value(t graph.Telemetry) int {
	switch m {
	case MetricNPCKills:
		return t.NPCKills
	case MetricPodKills:
		return t.PodKills
	case MetricShipKills:
		return t.ShipKills
	case MetricShipJumps:
		return t.ShipJumps
	}
	return 0
}

// DataScale is the glyph radius for one system's counters.
func DataScale(m Metric, t graph.Telemetry, userScale float64) float64 {
	return float64(m.Value(t)) * userScale * m.Weight()
}

// buildOverlay clears the data layer and adds one circle per system above the
// threshold. Each counter is read once. Returns the number of glyphs drawn.
func buildOverlay(layer *Layer, systems []*graph.System, m Metric, userScale float64, mapper *Mapper) int {
	layer.Clear()
	if m == MetricNone {
		return 0
	}
	for _, s := range systems {
		scale := DataScale(m, s.Stats, userScale)
		if !(scale > OverlayThreshold) {
			continue
		}
		pt := mapper.ProjectSystem(s)
		layer.Add(Primitive{
			Shape:  ShapeCircle,
			X:      pt.X,
			Y:      pt.Y,
			R:      scale,
			Color:  ColorData,
			Filled: true,
			Width:  lineWidth,
		}, MarkerRef(m.String(), s.ID))
	}
	return layer.Len()
}
