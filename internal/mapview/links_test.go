package mapview

import (
	"image/color"
	"testing"

	"eve-starmap/internal/graph"
)

// triangle builds A-B (same constellation), B-C (other constellation) and
// C-D (other region), each gate listed from both ends.
func triangle() *graph.Universe {
	u := graph.NewUniverse()
	u.AddSystem(&graph.System{ID: 1, Name: "A", RegionID: 10, ConstellationID: 100, Position: graph.Vec3{X: 0, Z: 0}})
	u.AddSystem(&graph.System{ID: 2, Name: "B", RegionID: 10, ConstellationID: 100, Position: graph.Vec3{X: 100, Z: 0}})
	u.AddSystem(&graph.System{ID: 3, Name: "C", RegionID: 10, ConstellationID: 101, Position: graph.Vec3{X: 100, Z: 100}})
	u.AddSystem(&graph.System{ID: 4, Name: "D", RegionID: 11, ConstellationID: 101, Position: graph.Vec3{X: 0, Z: 100}})
	for _, g := range [][2]int32{{1, 2}, {2, 3}, {3, 4}} {
		u.AddGate(g[0], g[1])
		u.AddGate(g[1], g[0])
	}
	return u
}

func TestDedupLinks_Symmetric(t *testing.T) {
	u := graph.NewUniverse()
	u.AddSystem(&graph.System{ID: 1, Name: "A"})
	u.AddSystem(&graph.System{ID: 2, Name: "B"})
	u.AddGate(1, 2)
	u.AddGate(2, 1)

	set := DedupLinks(u)
	if len(set.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(set.Links))
	}
	if set.Links[0].From.Name != "A" || set.Links[0].To.Name != "B" {
		t.Errorf("link = %s-%s, want A-B", set.Links[0].From.Name, set.Links[0].To.Name)
	}
	if set.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", set.Skipped)
	}
}

func TestDedupLinks_OneWayGateKept(t *testing.T) {
	u := graph.NewUniverse()
	u.AddSystem(&graph.System{ID: 1, Name: "A"})
	u.AddSystem(&graph.System{ID: 2, Name: "B"})
	u.AddGate(2, 1)

	set := DedupLinks(u)
	if len(set.Links) != 1 || set.Links[0].From.ID != 2 {
		t.Fatalf("links = %+v, want one link from B", set.Links)
	}
}

func TestDedupLinks_SkipsBadEdges(t *testing.T) {
	u := graph.NewUniverse()
	u.AddSystem(&graph.System{ID: 1, Name: "A"})
	u.AddSystem(&graph.System{ID: 2, Name: "B"})
	u.AddGate(1, 2)
	u.AddGate(1, 1)    // self loop
	u.AddGate(1, 9999) // unknown target
	u.AddGate(2, 9999)

	set := DedupLinks(u)
	if len(set.Links) != 1 {
		t.Errorf("links = %d, want 1", len(set.Links))
	}
	if set.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", set.Skipped)
	}
	for _, l := range set.Links {
		if l.From.ID == l.To.ID {
			t.Errorf("link has identical endpoints: %d", l.From.ID)
		}
	}
}

func TestDedupLinks_KeepsFirstSeenOrder(t *testing.T) {
	set := DedupLinks(triangle())
	want := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}}
	if len(set.Links) != len(want) {
		t.Fatalf("links = %d, want %d", len(set.Links), len(want))
	}
	for i, w := range want {
		if got := set.Links[i]; got.From.Name != w[0] || got.To.Name != w[1] {
			t.Errorf("links[%d] = %s-%s, want %s-%s", i, got.From.Name, got.To.Name, w[0], w[1])
		}
	}
}

func TestBuildLinks_Coloring(t *testing.T) {
	u := triangle()
	m := NewMapper(u.Systems(), 100, SentinelBounds())
	layer := NewLayer(LayerLinks)
	buildLinks(layer, DedupLinks(u).Links, u, m, false)

	want := []struct {
		name string
		c    color.RGBA
	}{
		{"A-B same constellation", ColorGate},
		{"B-C other constellation", ColorGateMuted},
		{"C-D other region", ColorGateMuted},
	}
	if layer.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", layer.Len(), len(want))
	}
	for i, w := range want {
		p, _ := layer.Primitive(i)
		if p.Color != w.c {
			t.Errorf("%s: color = %v, want %v", w.name, p.Color, w.c)
		}
		if p.Stroke != StrokeSolid {
			t.Errorf("%s: stroke = %v, want solid", w.name, p.Stroke)
		}
	}
}

func TestBuildLinks_JumpBridgesIndependentOfGates(t *testing.T) {
	u := triangle()
	u.SetJumpBridges([]graph.JumpBridge{
		{ID: 1, From: "A", To: "B"}, // duplicates a gate, still drawn
		{ID: 2, From: "a", To: "d"},
		{ID: 3, From: "A", To: "Nowhere"},
	})
	m := NewMapper(u.Systems(), 100, SentinelBounds())
	layer := NewLayer(LayerLinks)

	skipped := buildLinks(layer, DedupLinks(u).Links, u, m, true)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if layer.Len() != 5 {
		t.Fatalf("Len = %d, want 3 gates + 2 bridges", layer.Len())
	}
	for i := 3; i < 5; i++ {
		p, _ := layer.Primitive(i)
		ref, _ := layer.Ref(i)
		if p.Stroke != StrokeDashed || p.Color != ColorJumpBridge || ref.Name != "jump_bridge" {
			t.Errorf("prim %d = %+v ref %+v, want dashed jump bridge", i, p, ref)
		}
	}

	buildLinks(layer, DedupLinks(u).Links, u, m, false)
	if layer.Len() != 3 {
		t.Errorf("Len with bridges hidden = %d, want 3", layer.Len())
	}
}
