// Package render rasterizes a map scene to an image.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"eve-starmap/internal/mapview"
)

// Text smaller than this on screen is skipped.
const minTextPx = 4

// Circles larger than this are filled row by row instead of as a polygon.
const maxPolyRadius = 2048

// Dash pattern for dashed strokes, in screen pixels.
const (
	dashOn  = 6.0
	dashOff = 4.0
)

// Options controls the output image.
type Options struct {
	Width      int
	Height     int
	Viewport   mapview.Viewport
	Background color.RGBA
	// Legend lines are drawn top-left in a fixed font.
	Legend []string
}

// DefaultOptions renders the whole canvas into a w×h white image.
func DefaultOptions(canvasSize float64, w, h int) Options {
	return Options{
		Width:      w,
		Height:     h,
		Viewport:   mapview.FitViewport(canvasSize, w, h),
		Background: color.RGBA{255, 255, 255, 255},
	}
}

// Legend builds the standard legend lines for a scene summary.
func Legend(st mapview.Stats) []string {
	lines := []string{
		fmt.Sprintf("%s systems, %s links", humanize.Comma(int64(st.Systems)), humanize.Comma(int64(st.Links))),
		fmt.Sprintf("zoom %.2f (%s)", st.Zoom, st.LOD),
	}
	if st.Metric != mapview.MetricNone {
		lines = append(lines, fmt.Sprintf("%s: %s systems shown", st.Metric, humanize.Comma(int64(st.OverlayGlyphs))))
	}
	return lines
}

// Image draws the scene's attached layers bottom to top.
func Image(scene *mapview.Scene, opts Options) *image.RGBA {
	if opts.Width <= 0 || opts.Height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if opts.Viewport.Zoom == 0 {
		opts.Viewport.Zoom = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	r := &rasterizer{
		img:  img,
		z:    vector.NewRasterizer(opts.Width, opts.Height),
		view: opts.Viewport,
	}
	for _, layer := range scene.Attached() {
		for _, p := range layer.Primitives() {
			r.primitive(p)
		}
	}
	r.legend(opts.Legend)
	return img
}

// PNG encodes the scene as a PNG to w.
func PNG(w io.Writer, scene *mapview.Scene, opts Options) error {
	if err := png.Encode(w, Image(scene, opts)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type rasterizer struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	view mapview.Viewport
}

func (r *rasterizer) screen(x, y float64) (float32, float32) {
	pt := r.view.ToScreen(mapview.Point{X: x, Y: y})
	return float32(pt.X), float32(pt.Y)
}

// visible reports whether a screen-space box touches the image.
func (r *rasterizer) visible(x0, y0, x1, y1 float64) bool {
	b := r.img.Bounds()
	return x1 >= 0 && y1 >= 0 && x0 <= float64(b.Dx()) && y0 <= float64(b.Dy())
}

func (r *rasterizer) fill(c color.RGBA) {
	r.z.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
	r.z.Reset(r.img.Bounds().Dx(), r.img.Bounds().Dy())
}

func (r *rasterizer) primitive(p mapview.Primitive) {
	switch p.Shape {
	case mapview.ShapeRect:
		r.rect(p)
	case mapview.ShapeCircle:
		r.circle(p)
	case mapview.ShapeLine:
		r.line(p)
	case mapview.ShapeText:
		r.text(p)
	}
}

func (r *rasterizer) rect(p mapview.Primitive) {
	x0, y0 := r.screen(p.X, p.Y)
	x1, y1 := r.screen(p.X+p.W, p.Y+p.H)
	if !r.visible(float64(x0), float64(y0), float64(x1), float64(y1)) {
		return
	}
	// Keep tiny glyphs at least one pixel so systems never vanish when zoomed out.
	if x1-x0 < 1 {
		x1 = x0 + 1
	}
	if y1-y0 < 1 {
		y1 = y0 + 1
	}
	if p.Filled {
		r.z.MoveTo(x0, y0)
		r.z.LineTo(x1, y0)
		r.z.LineTo(x1, y1)
		r.z.LineTo(x0, y1)
		r.z.ClosePath()
		r.fill(p.Color)
		return
	}
	w := strokeWidth(p)
	r.segment(x0, y0, x1, y0, w)
	r.segment(x1, y0, x1, y1, w)
	r.segment(x1, y1, x0, y1, w)
	r.segment(x0, y1, x0, y0, w)
	r.fill(p.Color)
}

func (r *rasterizer) circle(p mapview.Primitive) {
	cx, cy := r.screen(p.X, p.Y)
	rad := float32(p.R * r.view.Zoom)
	if rad <= 0 || !r.visible(float64(cx-rad), float64(cy-rad), float64(cx+rad), float64(cy+rad)) {
		return
	}
	if rad < 0.5 {
		rad = 0.5
	}
	if rad > maxPolyRadius {
		inner := float32(0)
		if !p.Filled {
			inner = rad - strokeWidth(p)/2
			rad += strokeWidth(p) / 2
		}
		r.spanCircle(float64(cx), float64(cy), float64(inner), float64(rad), p.Color)
		return
	}
	n := int(math.Min(128, math.Max(12, float64(rad))))
	step := 2 * math.Pi / float64(n)
	if p.Filled {
		r.z.MoveTo(cx+rad, cy)
		for i := 1; i < n; i++ {
			a := float64(i) * step
			r.z.LineTo(cx+rad*float32(math.Cos(a)), cy+rad*float32(math.Sin(a)))
		}
		r.z.ClosePath()
		r.fill(p.Color)
		return
	}
	w := strokeWidth(p)
	px, py := cx+rad, cy
	for i := 1; i <= n; i++ {
		a := float64(i) * step
		x, y := cx+rad*float32(math.Cos(a)), cy+rad*float32(math.Sin(a))
		r.segment(px, py, x, y, w)
		px, py = x, y
	}
	r.fill(p.Color)
}

// spanCircle fills the ring between inner and outer radius one pixel row at a
// time. Only rows inside the image are visited.
func (r *rasterizer) spanCircle(cx, cy, inner, outer float64, c color.RGBA) {
	b := r.img.Bounds()
	src := image.NewUniform(c)
	y0 := max(b.Min.Y, int(math.Floor(cy-outer)))
	y1 := min(b.Max.Y, int(math.Ceil(cy+outer)))
	for y := y0; y < y1; y++ {
		dy := float64(y) + 0.5 - cy
		if math.Abs(dy) > outer {
			continue
		}
		ho := math.Sqrt(outer*outer - dy*dy)
		if math.Abs(dy) >= inner {
			r.span(y, cx-ho, cx+ho, src)
			continue
		}
		hi := math.Sqrt(inner*inner - dy*dy)
		r.span(y, cx-ho, cx-hi, src)
		r.span(y, cx+hi, cx+ho, src)
	}
}

func (r *rasterizer) span(y int, x0, x1 float64, src image.Image) {
	b := r.img.Bounds()
	lo := max(b.Min.X, int(math.Round(x0)))
	hi := min(b.Max.X, int(math.Round(x1)))
	if lo >= hi {
		return
	}
	draw.Draw(r.img, image.Rect(lo, y, hi, y+1), src, image.Point{}, draw.Over)
}

func (r *rasterizer) line(p mapview.Primitive) {
	x0, y0 := r.screen(p.X, p.Y)
	x1, y1 := r.screen(p.X2, p.Y2)
	if !r.visible(math.Min(float64(x0), float64(x1)), math.Min(float64(y0), float64(y1)),
		math.Max(float64(x0), float64(x1)), math.Max(float64(y0), float64(y1))) {
		return
	}
	w := strokeWidth(p)
	if p.Stroke != mapview.StrokeDashed {
		r.segment(x0, y0, x1, y1, w)
		r.fill(p.Color)
		return
	}
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	for t := 0.0; t < length; t += dashOn + dashOff {
		end := math.Min(t+dashOn, length)
		r.segment(
			x0+float32(ux*t), y0+float32(uy*t),
			x0+float32(ux*end), y0+float32(uy*end), w)
	}
	r.fill(p.Color)
}

// segment adds a w-wide quad from (x0,y0) to (x1,y1) to the current path.
func (r *rasterizer) segment(x0, y0, x1, y1, w float32) {
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := float32(-dy/length) * w / 2
	ny := float32(dx/length) * w / 2
	r.z.MoveTo(x0+nx, y0+ny)
	r.z.LineTo(x1+nx, y1+ny)
	r.z.LineTo(x1-nx, y1-ny)
	r.z.LineTo(x0-nx, y0-ny)
	r.z.ClosePath()
}

func strokeWidth(p mapview.Primitive) float32 {
	if p.Width <= 0 {
		return 1
	}
	return float32(p.Width)
}

func (r *rasterizer) text(p mapview.Primitive) {
	px := p.Size * r.view.Zoom
	if px < minTextPx || p.Text == "" {
		return
	}
	face := faceFor(px)
	x, y := r.screen(p.X, p.Y)
	width := font.MeasureString(face, p.Text).Ceil()
	dot := fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(y))}
	if p.Center {
		dot.X = fixed.I(int(x) - width/2)
		dot.Y = fixed.I(int(y) + face.Metrics().Ascent.Ceil()/2)
	}
	if !r.visible(float64(dot.X.Floor()), float64(dot.Y.Floor())-px, float64(dot.X.Floor()+width), float64(dot.Y.Floor())+px) {
		return
	}
	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(p.Color), Face: face, Dot: dot}
	d.DrawString(p.Text)
}

func (r *rasterizer) legend(lines []string) {
	face := basicfont.Face7x13
	for i, line := range lines {
		d := &font.Drawer{
			Dst:  r.img,
			Src:  image.NewUniform(color.RGBA{64, 64, 64, 255}),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(8), Y: fixed.I(18 + i*15)},
		}
		d.DrawString(line)
	}
}

var (
	facesMu sync.Mutex
	faces   = map[int]font.Face{}
	regular *opentype.Font
)

// faceFor returns a Go Regular face for a pixel size, cached per whole pixel.
// Falls back to basicfont if the embedded font cannot be parsed.
func faceFor(px float64) font.Face {
	size := int(math.Round(px))
	if size > 200 {
		size = 200
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f
	}
	if regular == nil {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return basicfont.Face7x13
		}
		regular = f
	}
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	faces[size] = face
	return face
}
