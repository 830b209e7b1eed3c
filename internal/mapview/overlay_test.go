package mapview

import (
	"testing"

	"eve-starmap/internal/graph"
)

func TestDataScale(t *testing.T) {
	stats := graph.Telemetry{NPCKills: 100, PodKills: 3, ShipKills: 2, ShipJumps: 50}
	tests := []struct {
		m     Metric
		scale float64
		want  float64
	}{
		{MetricNone, 1, 0},
		{MetricNPCKills, 1, 5},
		{MetricPodKills, 1, 6},
		{MetricShipKills, 0.5, 8},
		{MetricShipJumps, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.m.String(), func(t *testing.T) {
			if got := DataScale(tt.m, stats, tt.scale); got != tt.want {
				t.Errorf("DataScale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildOverlay_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		m      Metric
		stats  graph.Telemetry
		scale  float64
		drawn  bool
		radius float64
	}{
		{"zero value", MetricShipKills, graph.Telemetry{}, 100, false, 0},
		{"exactly three", MetricShipKills, graph.Telemetry{ShipKills: 1}, 0.375, false, 0},
		{"just above three", MetricPodKills, graph.Telemetry{PodKills: 1}, 1.50005, true, 1.50005 * 2},
		{"other metric ignored", MetricNPCKills, graph.Telemetry{ShipKills: 500}, 1, false, 0},
		{"metric none", MetricNone, graph.Telemetry{ShipKills: 500}, 1, false, 0},
		{"scale zero", MetricShipJumps, graph.Telemetry{ShipJumps: 500}, 0, false, 0},
		{"busy system", MetricShipJumps, graph.Telemetry{ShipJumps: 400}, 1, true, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sys(1, "A", 0, 0)
			s.Stats = tt.stats
			m := NewMapper([]*graph.System{s}, 100, SentinelBounds())
			layer := NewLayer(LayerData)

			n := buildOverlay(layer, []*graph.System{s}, tt.m, tt.scale, m)
			if drawn := n == 1; drawn != tt.drawn {
				t.Fatalf("drawn = %v, want %v (scale %v)", drawn, tt.drawn, DataScale(tt.m, tt.stats, tt.scale))
			}
			if !tt.drawn {
				if layer.Len() != 0 {
					t.Errorf("Len = %d, want 0", layer.Len())
				}
				return
			}
			p, _ := layer.Primitive(0)
			if p.Shape != ShapeCircle || p.R != tt.radius || p.Color != ColorData {
				t.Errorf("glyph = %+v, want data circle r=%v", p, tt.radius)
			}
			ref, _ := layer.Ref(0)
			if ref.Kind != RefMarker || ref.SystemID != 1 {
				t.Errorf("ref = %+v", ref)
			}
		})
	}
}

func TestBuildOverlay_NothingSurvivesRebuild(t *testing.T) {
	a, b := sys(1, "A", 0, 0), sys(2, "B", 10, 10)
	a.Stats.ShipKills = 10
	b.Stats.ShipKills = 10
	systems := []*graph.System{a, b}
	m := NewMapper(systems, 100, SentinelBounds())
	layer := NewLayer(LayerData)

	if n := buildOverlay(layer, systems, MetricShipKills, 1, m); n != 2 {
		t.Fatalf("first tick = %d glyphs, want 2", n)
	}
	a.Stats = graph.Telemetry{}
	if n := buildOverlay(layer, systems, MetricShipKills, 1, m); n != 1 {
		t.Fatalf("second tick = %d glyphs, want 1", n)
	}
	ref, _ := layer.Ref(0)
	if ref.SystemID != 2 {
		t.Errorf("surviving glyph belongs to %d, want 2", ref.SystemID)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"", MetricNone, false},
		{"none", MetricNone, false},
		{"npc_kills", MetricNPCKills, false},
		{" Pod_Kills ", MetricPodKills, false},
		{"ship_kills", MetricShipKills, false},
		{"ship_jumps", MetricShipJumps, false},
		{"capsules", MetricNone, true},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMetric(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMetric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, m := range Metrics {
		back, err := ParseMetric(m.String())
		if err != nil || back != m {
			t.Errorf("ParseMetric(%q) = %v, %v", m, back, err)
		}
	}
}
