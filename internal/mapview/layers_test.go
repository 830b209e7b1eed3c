package mapview

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestPrimitive_Contains(t *testing.T) {
	rect := Primitive{Shape: ShapeRect, X: 10, Y: 10, W: 6, H: 6}
	circle := Primitive{Shape: ShapeCircle, X: 0, Y: 0, R: 5}
	ln := Primitive{Shape: ShapeLine, X: 0, Y: 0, X2: 10, Y2: 10}

	tests := []struct {
		name string
		p    Primitive
		pt   Point
		want bool
	}{
		{"rect inside", rect, Point{13, 13}, true},
		{"rect top-left edge", rect, Point{10, 10}, true},
		{"rect bottom-right edge", rect, Point{16, 16}, true},
		{"rect outside", rect, Point{16.01, 13}, false},
		{"circle centre", circle, Point{0, 0}, true},
		{"circle edge", circle, Point{3, 4}, true},
		{"circle outside", circle, Point{4, 4}, false},
		{"line never hit", ln, Point{5, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Contains(tt.pt); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestLayer_AddClear(t *testing.T) {
	l := NewLayer(LayerSystems)
	id0 := l.Add(Primitive{Shape: ShapeRect, W: 1, H: 1}, SystemRef(1, "A"))
	id1 := l.Add(Primitive{Shape: ShapeRect, W: 1, H: 1}, SystemRef(2, "B"))
	if id0 != 0 || id1 != 1 || l.Len() != 2 {
		t.Fatalf("ids = %d,%d len = %d", id0, id1, l.Len())
	}

	id, ok := l.TopmostAt(Point{0.5, 0.5})
	if !ok || id != 1 {
		t.Errorf("TopmostAt = %d, %v, want 1", id, ok)
	}
	ref, _ := l.Ref(id)
	if ref.Kind != RefSystem || ref.SystemID != 2 || ref.Name != "B" {
		t.Errorf("Ref = %+v", ref)
	}

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len after Clear = %d", l.Len())
	}
	if _, ok := l.Ref(0); ok {
		t.Error("Ref(0) valid after Clear")
	}
	if _, ok := l.Primitive(-1); ok {
		t.Error("Primitive(-1) valid")
	}
}

func TestScene_AttachDetach(t *testing.T) {
	s := NewScene()
	if s.Attach(LayerSystems) {
		t.Error("Attach(systems) reported change on an attached layer")
	}
	if !s.Attach(LayerSystemLabels) {
		t.Error("Attach(system_labels) reported no change")
	}
	if s.Attach("nonsense") {
		t.Error("Attach on unknown layer succeeded")
	}
	if !s.Detach(LayerSystemLabels) || s.Detach(LayerSystemLabels) {
		t.Error("Detach not idempotent")
	}
	if s.Layer("nonsense") != nil {
		t.Error("unknown layer returned")
	}
	if got := LayerNames(); len(got) != 6 || got[0] != LayerData || got[5] != LayerRegionLabels {
		t.Errorf("LayerNames = %v", got)
	}
}

func TestPrimitive_JSON(t *testing.T) {
	p := Primitive{Shape: ShapeLine, X2: 3, Stroke: StrokeDashed, Color: ColorJumpBridge}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"shape":"line"`, `"stroke":"dashed"`, `"x2":3`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("json %s missing %s", b, want)
		}
	}
}

func TestViewport(t *testing.T) {
	v := FitViewport(5000, 1000, 500)
	if v.Zoom != 0.1 || v.OffsetX != 250 || v.OffsetY != 0 {
		t.Fatalf("FitViewport = %+v", v)
	}

	c := Point{1234, 4321}
	back := v.ToCanvas(v.ToScreen(c))
	if math.Abs(back.X-c.X) > 1e-9 || math.Abs(back.Y-c.Y) > 1e-9 {
		t.Errorf("round trip = %v, want %v", back, c)
	}

	anchor := Point{400, 300}
	before := v.ToCanvas(anchor)
	z := v.ZoomAt(anchor, 4)
	after := z.ToCanvas(anchor)
	if z.Zoom != 0.4 {
		t.Errorf("Zoom = %v, want 0.4", z.Zoom)
	}
	if math.Abs(after.X-before.X) > 1e-9 || math.Abs(after.Y-before.Y) > 1e-9 {
		t.Errorf("anchor moved: %v -> %v", before, after)
	}

	if got := v.ZoomAt(anchor, 1e6).Zoom; got != MaxZoom {
		t.Errorf("clamped zoom = %v, want %v", got, MaxZoom)
	}
	if got := v.ZoomAt(anchor, 0); got != v {
		t.Errorf("ZoomAt(0) = %+v, want unchanged", got)
	}
	if p := v.Pan(10, -5); p.OffsetX != 260 || p.OffsetY != -5 {
		t.Errorf("Pan = %+v", p)
	}
}
