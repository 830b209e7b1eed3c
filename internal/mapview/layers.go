package mapview

import (
	"fmt"
	"image/color"
)

// Shape is the kind of drawable a Primitive describes.
type Shape uint8

const (
	ShapeRect Shape = iota
	ShapeCircle
	ShapeLine
	ShapeText
)

var shapeNames = [...]string{"rect", "circle", "line", "text"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", s)
}

// MarshalText encodes the shape by name in JSON.
func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// StrokeStyle is the line pattern for lines and outlines.
type StrokeStyle uint8

const (
	StrokeSolid StrokeStyle = iota
	StrokeDashed
)

func (s StrokeStyle) String() string {
	if s == StrokeDashed {
		return "dashed"
	}
	return "solid"
}

// MarshalText encodes the stroke style by name in JSON.
func (s StrokeStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Primitive is one positioned shape or text glyph in canvas space.
//
//	rect:   X,Y top-left corner, W,H size
//	circle: X,Y centre, R radius
//	line:   X,Y to X2,Y2
//	text:   X,Y anchor (left edge, or centre when Center is set), Size in points
type Primitive struct {
	Shape  Shape       `json:"shape"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	W      float64     `json:"w,omitempty"`
	H      float64     `json:"h,omitempty"`
	R      float64     `json:"r,omitempty"`
	X2     float64     `json:"x2,omitempty"`
	Y2     float64     `json:"y2,omitempty"`
	Text   string      `json:"text,omitempty"`
	Size   float64     `json:"size,omitempty"`
	Center bool        `json:"center,omitempty"`
	Color  color.RGBA  `json:"color"`
	Filled bool        `json:"filled,omitempty"`
	Stroke StrokeStyle `json:"stroke"`
	Width  float64     `json:"width,omitempty"`
}

// Contains reports whether pt falls inside a rect or circle, edges included.
// Lines and text are never hit.
func (p Primitive) Contains(pt Point) bool {
	switch p.Shape {
	case ShapeRect:
		return pt.X >= p.X && pt.X <= p.X+p.W && pt.Y >= p.Y && pt.Y <= p.Y+p.H
	case ShapeCircle:
		dx, dy := pt.X-p.X, pt.Y-p.Y
		return dx*dx+dy*dy <= p.R*p.R
	}
	return false
}

// RefKind says what a Ref points back to.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefSystem
	RefLabel
	RefMarker
)

// Ref is the back-reference from a primitive to whatever produced it. It is
// looked up only during hit-testing and never owns the entity.
type Ref struct {
	Kind     RefKind `json:"kind"`
	SystemID int32   `json:"system_id,omitempty"`
	Name     string  `json:"name,omitempty"`
}

// SystemRef points at a system by ID and name.
func SystemRef(id int32, name string) Ref { return Ref{Kind: RefSystem, SystemID: id, Name: name} }

// LabelRef points at a label string.
func LabelRef(text string) Ref { return Ref{Kind: RefLabel, Name: text} }

// MarkerRef tags a synthetic primitive; systemID may be zero.
func MarkerRef(tag string, systemID int32) Ref {
	return Ref{Kind: RefMarker, Name: tag, SystemID: systemID}
}

// Layer is an ordered, clearable list of primitives with a parallel ref per
// primitive. Primitive ids are insertion indices and are only valid until Clear.
type Layer struct {
	name  LayerName
	prims []Primitive
	refs  []Ref
}

// NewLayer creates an empty named layer.
func NewLayer(name LayerName) *Layer {
	return &Layer{name: name}
}

// Name returns the layer name.
func (l *Layer) Name() LayerName { return l.name }

// Add appends a primitive on top of the layer and returns its id.
func (l *Layer) Add(p Primitive, ref Ref) int {
	l.prims = append(l.prims, p)
	l.refs = append(l.refs, ref)
	return len(l.prims) - 1
}

// Clear drops every primitive and ref. Backing storage is released so a large
// layer does not pin memory after shrinking.
func (l *Layer) Clear() {
	l.prims = nil
	l.refs = nil
}

// Len returns the number of primitives.
func (l *Layer) Len() int { return len(l.prims) }

// Primitive returns the primitive with the given id.
func (l *Layer) Primitive(id int) (Primitive, bool) {
	if id < 0 || id >= len(l.prims) {
		return Primitive{}, false
	}
	return l.prims[id], true
}

// Ref returns the back-reference of the primitive with the given id.
func (l *Layer) Ref(id int) (Ref, bool) {
	if id < 0 || id >= len(l.refs) {
		return Ref{}, false
	}
	return l.refs[id], true
}

// Primitives returns the primitives in draw order. The slice must not be modified.
func (l *Layer) Primitives() []Primitive { return l.prims }

// TopmostAt returns the id of the last-added primitive containing pt.
func (l *Layer) TopmostAt(pt Point) (int, bool) {
	for i := len(l.prims) - 1; i >= 0; i-- {
		if l.prims[i].Contains(pt) {
			return i, true
		}
	}
	return -1, false
}
