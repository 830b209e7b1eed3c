package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"eve-starmap/internal/graph"
	"eve-starmap/internal/mapview"
)

func testEngine(t *testing.T) *mapview.Engine {
	t.Helper()
	u := graph.NewUniverse()
	u.AddSystem(&graph.System{ID: 1, Name: "A", RegionID: 1, ConstellationID: 1, Position: graph.Vec3{X: 0, Z: 0}})
	u.AddSystem(&graph.System{ID: 2, Name: "B", RegionID: 1, ConstellationID: 1, Position: graph.Vec3{X: 100, Z: 100}})
	u.AddGate(1, 2)
	u.AddGate(2, 1)

	opts := mapview.DefaultOptions()
	opts.CanvasSize = 100
	e := mapview.NewEngine(u, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return e
}

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestPNG_DrawsLayers(t *testing.T) {
	e := testEngine(t)
	opts := Options{
		Width:      200,
		Height:     200,
		Viewport:   mapview.Viewport{Zoom: 1, OffsetX: 50, OffsetY: 50},
		Background: color.RGBA{255, 255, 255, 255},
	}

	var buf bytes.Buffer
	if err := PNG(&buf, e.Scene(), opts); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("bounds = %v", b)
	}

	white := color.RGBA{255, 255, 255, 255}
	tests := []struct {
		name  string
		x, y  int
		check func(color.RGBA) bool
	}{
		// B projects to canvas (100, 0), screen (150, 50).
		{"system B glyph", 150, 50, func(c color.RGBA) bool { return c == mapview.ColorSystem }},
		// A projects to canvas (0, 100), screen (50, 150).
		{"system A glyph", 50, 150, func(c color.RGBA) bool { return c == mapview.ColorSystem }},
		{"gate link midpoint", 99, 100, func(c color.RGBA) bool { return c != white }},
		{"empty corner", 5, 195, func(c color.RGBA) bool { return c == white }},
	}
	for _, tt := range tests {
		if got := rgba(img.At(tt.x, tt.y)); !tt.check(got) {
			t.Errorf("%s: pixel (%d,%d) = %v", tt.name, tt.x, tt.y, got)
		}
	}
}

func TestImage_RangeOverlay(t *testing.T) {
	e := testEngine(t)
	if _, ok := e.SelectSystem("A"); !ok {
		t.Fatal("SelectSystem(A) failed")
	}
	img := Image(e.Scene(), Options{Width: 200, Height: 200, Viewport: mapview.Viewport{Zoom: 1, OffsetX: 50, OffsetY: 50}})

	// The picked marker is 10x10, wider than the 6x6 system glyph drawn above it.
	if got := rgba(img.At(46, 150)); got != mapview.ColorPicked {
		t.Errorf("picked marker pixel = %v, want %v", got, mapview.ColorPicked)
	}
	// 7 LY at one canvas unit per metre covers the whole image.
	if got := rgba(img.At(5, 195)); got != mapview.ColorRange {
		t.Errorf("range fill pixel = %v, want %v", got, mapview.ColorRange)
	}
}

func TestImage_EmptySize(t *testing.T) {
	e := testEngine(t)
	img := Image(e.Scene(), Options{})
	if !img.Bounds().Empty() {
		t.Errorf("bounds = %v, want empty", img.Bounds())
	}
}

func TestLegend(t *testing.T) {
	st := mapview.Stats{Systems: 8285, Links: 6900, Zoom: 0.5, LOD: mapview.OverviewView, Metric: mapview.MetricShipKills, OverlayGlyphs: 1234}
	lines := Legend(st)
	if len(lines) != 3 {
		t.Fatalf("Legend = %v", lines)
	}
	if !strings.Contains(lines[0], "8,285 systems") || !strings.Contains(lines[0], "6,900 links") {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if !strings.Contains(lines[1], "overview") {
		t.Errorf("lines[1] = %q", lines[1])
	}
	if !strings.Contains(lines[2], "ship_kills: 1,234") {
		t.Errorf("lines[2] = %q", lines[2])
	}
}

func TestDefaultOptions_FitsCanvas(t *testing.T) {
	o := DefaultOptions(5000, 1000, 1000)
	if o.Viewport.Zoom != 0.2 || o.Background.A != 255 {
		t.Errorf("DefaultOptions = %+v", o)
	}
}
