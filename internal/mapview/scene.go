package mapview

import "image/color"

// LayerName identifies one of the scene's fixed layers.
type LayerName string

const (
	LayerData         LayerName = "data"
	LayerRange        LayerName = "range"
	LayerLinks        LayerName = "links"
	LayerSystems      LayerName = "systems"
	LayerSystemLabels LayerName = "system_labels"
	LayerRegionLabels LayerName = "region_labels"
)

// drawOrder is bottom to top. Label layers come last; LOD decides which one is attached.
var drawOrder = []LayerName{
	LayerData,
	LayerRange,
	LayerLinks,
	LayerSystems,
	LayerSystemLabels,
	LayerRegionLabels,
}

// LayerNames returns every layer name in draw order.
func LayerNames() []LayerName {
	return append([]LayerName(nil), drawOrder...)
}

// Palette.
var (
	ColorSystem      = color.RGBA{0, 0, 0, 255}       // black
	ColorGate        = color.RGBA{128, 128, 128, 255} // gray
	ColorGateMuted   = color.RGBA{211, 211, 211, 255} // light gray
	ColorJumpBridge  = color.RGBA{0, 0, 255, 255}     // blue
	ColorSystemLabel = color.RGBA{169, 169, 169, 255} // dark gray
	ColorRegionLabel = color.RGBA{0, 0, 0, 255}
	ColorData        = color.RGBA{255, 182, 193, 255} // light pink
	ColorRange       = color.RGBA{245, 245, 245, 255} // white smoke
	ColorPicked      = color.RGBA{128, 0, 128, 255}   // purple
	ColorInRange     = color.RGBA{100, 149, 237, 255} // cornflower blue
)

// Scene owns the layers and tracks which ones are attached for drawing.
type Scene struct {
	layers   map[LayerName]*Layer
	attached map[LayerName]bool
}

// NewScene creates all layers. Everything except the two label layers starts attached.
func NewScene() *Scene {
	s := &Scene{
		layers:   make(map[LayerName]*Layer, len(drawOrder)),
		attached: make(map[LayerName]bool, len(drawOrder)),
	}
	for _, name := range drawOrder {
		s.layers[name] = NewLayer(name)
	}
	for _, name := range []LayerName{LayerData, LayerRange, LayerLinks, LayerSystems} {
		s.attached[name] = true
	}
	return s
}

// Layer returns the named layer, or nil for an unknown name.
func (s *Scene) Layer(name LayerName) *Layer { return s.layers[name] }

// IsAttached reports whether the named layer is drawn.
func (s *Scene) IsAttached(name LayerName) bool { return s.attached[name] }

// Attach marks a layer for drawing. Returns false if it was already attached or unknown.
func (s *Scene) Attach(name LayerName) bool {
	if _, ok := s.layers[name]; !ok || s.attached[name] {
		return false
	}
	s.attached[name] = true
	return true
}

// Detach stops drawing a layer. Returns false if it was not attached.
func (s *Scene) Detach(name LayerName) bool {
	if !s.attached[name] {
		return false
	}
	delete(s.attached, name)
	return true
}

// Attached returns the attached layers bottom to top.
func (s *Scene) Attached() []*Layer {
	out := make([]*Layer, 0, len(drawOrder))
	for _, name := range drawOrder {
		if s.attached[name] {
			out = append(out, s.layers[name])
		}
	}
	return out
}

// Primitives counts primitives across all layers, attached or not.
func (s *Scene) Primitives() int {
	n := 0
	for _, l := range s.layers {
		n += l.Len()
	}
	return n
}
