package mapview

import (
	"image/color"

	"eve-starmap/internal/graph"
)

// Glyph geometry in canvas units.
const (
	systemGlyphSize = 6
	markerSize      = 10
	labelOffset     = 5
	systemLabelSize = 6
	regionLabelSize = 60
	lineWidth       = 1
)

// centredRect returns a filled square centred on pt.
func centredRect(pt Point, size float64, c color.RGBA) Primitive {
	half := size / 2
	return Primitive{
		Shape:  ShapeRect,
		X:      pt.X - half,
		Y:      pt.Y - half,
		W:      size,
		H:      size,
		Color:  c,
		Filled: true,
	}
}

func line(a, b Point, c color.RGBA, style StrokeStyle) Primitive {
	return Primitive{
		Shape:  ShapeLine,
		X:      a.X,
		Y:      a.Y,
		X2:     b.X,
		Y2:     b.Y,
		Color:  c,
		Stroke: style,
		Width:  lineWidth,
	}
}

// buildSystems fills the systems layer (one pickable square per system) and the
// per-system label layer.
func buildSystems(glyphs, labels *Layer, systems []*graph.System, m *Mapper) {
	glyphs.Clear()
	labels.Clear()
	for _, s := range systems {
		pt := m.ProjectSystem(s)
		glyphs.Add(centredRect(pt, systemGlyphSize, ColorSystem), SystemRef(s.ID, s.Name))
		labels.Add(Primitive{
			Shape: ShapeText,
			X:     pt.X + labelOffset,
			Y:     pt.Y + labelOffset,
			Text:  s.Name,
			Size:  systemLabelSize,
			Color: ColorSystemLabel,
		}, LabelRef(s.Name))
	}
}

// buildRegionLabels fills the overview label layer. Regions without a position
// are skipped.
func buildRegionLabels(labels *Layer, regions []*graph.Region, m *Mapper) {
	labels.Clear()
	for _, r := range regions {
		if !r.HasPosition {
			continue
		}
		pt := m.Project(r.Position.X, r.Position.Z)
		labels.Add(Primitive{
			Shape:  ShapeText,
			X:      pt.X + labelOffset,
			Y:      pt.Y + labelOffset,
			Text:   r.Name,
			Size:   regionLabelSize,
			Center: true,
			Color:  ColorRegionLabel,
		}, LabelRef(r.Name))
	}
}

// buildLinks fills the links layer with gate links and, when showBridges is set,
// dashed jump bridge lines on top. Bridges are not deduplicated against gates.
// Returns the number of bridges skipped for naming unknown systems.
func buildLinks(layer *Layer, links []Link, p GraphProvider, m *Mapper, showBridges bool) int {
	layer.Clear()
	for _, l := range links {
		c := ColorGate
		if l.crossesBoundary() {
			c = ColorGateMuted
		}
		layer.Add(line(m.ProjectSystem(l.From), m.ProjectSystem(l.To), c, StrokeSolid), MarkerRef("link", 0))
	}
	if !showBridges {
		return 0
	}
	skipped := 0
	for _, jb := range p.JumpBridges() {
		from, ok := p.System(jb.From)
		if !ok {
			skipped++
			continue
		}
		to, ok := p.System(jb.To)
		if !ok {
			skipped++
			continue
		}
		layer.Add(line(m.ProjectSystem(from), m.ProjectSystem(to), ColorJumpBridge, StrokeDashed), MarkerRef("jump_bridge", 0))
	}
	return skipped
}
