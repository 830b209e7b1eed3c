package main

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"eve-starmap/internal/config"
	"eve-starmap/internal/esi"
	"eve-starmap/internal/graph"
	"eve-starmap/internal/logger"
	"eve-starmap/internal/mapview"
	"eve-starmap/internal/render"
)

const (
	wheelStep     = 1.1
	scaleStep     = 1.25
	minTextPx     = 4
	maxTextPx     = 200
	dashOn        = 6.0
	dashOff       = 4.0
	hudFontSize   = 13
	hudLineHeight = 17
)

var (
	background = color.RGBA{255, 255, 255, 255}
	hudColor   = color.RGBA{64, 64, 64, 255}
)

// Game drives the engine from ebiten's update loop. Every engine call
// happens in Update, so no locking is needed.
type Game struct {
	engine    *mapview.Engine
	universe  *graph.Universe
	cfg       *config.Config
	telemetry <-chan *esi.Snapshot

	view   mapview.Viewport
	width  int
	height int
	framed bool

	dragging     bool
	lastX, lastY int

	ticks       int
	refreshTick int

	fontSource *text.GoTextFaceSource
	faces      map[int]*text.GoTextFace
	status     string
}

func newGame(e *mapview.Engine, u *graph.Universe, cfg *config.Config, telemetry <-chan *esi.Snapshot) *Game {
	g := &Game{
		engine:      e,
		universe:    u,
		cfg:         cfg,
		telemetry:   telemetry,
		width:       cfg.WindowW,
		height:      cfg.WindowH,
		refreshTick: cfg.RefreshIntervalSec * ebiten.TPS(),
		faces:       make(map[int]*text.GoTextFace),
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		logger.Warn("View", fmt.Sprintf("Font load failed, labels disabled: %v", err))
	}
	g.fontSource = src
	return g
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (g *Game) Update() error {
	if !g.framed && g.width > 0 && g.height > 0 {
		g.view = mapview.FitViewport(g.cfg.CanvasSize, g.width, g.height)
		g.engine.ZoomChanged(g.view.Zoom)
		g.framed = true
	}

	g.drainTelemetry()
	g.handleMouse()
	g.handleKeys()
	g.engine.Sync()

	g.ticks++
	if g.refreshTick > 0 && g.ticks%g.refreshTick == 0 {
		g.engine.Refresh(g.engine.BoundsStale())
	}
	return nil
}

func (g *Game) drainTelemetry() {
	select {
	case snap := <-g.telemetry:
		n := g.universe.ApplyTelemetry(snap.Stats)
		g.status = fmt.Sprintf("telemetry: %d systems", n)
	default:
	}
}

func (g *Game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	cursor := mapview.Point{X: float64(mx), Y: float64(my)}

	if _, wy := ebiten.Wheel(); wy != 0 {
		g.view = g.view.ZoomAt(cursor, math.Pow(wheelStep, wy))
		g.engine.ZoomChanged(g.view.Zoom)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.lastX, g.lastY = mx, my
	}
	if g.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.view = g.view.Pan(float64(mx-g.lastX), float64(my-g.lastY))
		g.lastX, g.lastY = mx, my
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.dragging = false
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		res, ok := g.engine.Pick(g.view.ToCanvas(cursor))
		if !ok {
			g.status = ""
			return
		}
		g.status = fmt.Sprintf("%s: %d systems within %.0f LY", res.Name, len(res.InRange), res.RangeLY)
	}
}

func (g *Game) handleKeys() {
	metricKeys := []ebiten.Key{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4}
	for i, k := range metricKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.engine.SetMetric(mapview.Metrics[i])
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit0) {
		g.engine.SetMetric(mapview.MetricNone)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		g.engine.SetOverlayScale(g.engine.OverlayScale() * scaleStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		g.engine.SetOverlayScale(g.engine.OverlayScale() / scaleStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		g.engine.SetShowJumpBridges(!g.engine.ShowJumpBridges())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.engine.Refresh(true)
		g.status = "rebuilt"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.engine.ClearSelection()
		g.status = ""
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	for _, layer := range g.engine.Scene().Attached() {
		for _, p := range layer.Primitives() {
			g.drawPrimitive(screen, p)
		}
	}
	g.drawHUD(screen)
}

func (g *Game) screen(x, y float64) (float32, float32) {
	pt := g.view.ToScreen(mapview.Point{X: x, Y: y})
	return float32(pt.X), float32(pt.Y)
}

// offscreen reports whether a screen-space box misses the window entirely.
func (g *Game) offscreen(x0, y0, x1, y1 float32) bool {
	return x1 < 0 || y1 < 0 || x0 > float32(g.width) || y0 > float32(g.height)
}

func strokeWidth(p mapview.Primitive) float32 {
	if p.Width <= 0 {
		return 1
	}
	return float32(p.Width)
}

func (g *Game) drawPrimitive(screen *ebiten.Image, p mapview.Primitive) {
	switch p.Shape {
	case mapview.ShapeRect:
		x0, y0 := g.screen(p.X, p.Y)
		x1, y1 := g.screen(p.X+p.W, p.Y+p.H)
		if g.offscreen(x0, y0, x1, y1) {
			return
		}
		w, h := max(x1-x0, 1), max(y1-y0, 1)
		if p.Filled {
			vector.DrawFilledRect(screen, x0, y0, w, h, p.Color, false)
		} else {
			vector.StrokeRect(screen, x0, y0, w, h, strokeWidth(p), p.Color, false)
		}

	case mapview.ShapeCircle:
		cx, cy := g.screen(p.X, p.Y)
		r := float32(p.R * g.view.Zoom)
		if r <= 0 || g.offscreen(cx-r, cy-r, cx+r, cy+r) {
			return
		}
		if p.Filled && g.coversWindow(cx, cy, r) {
			vector.DrawFilledRect(screen, 0, 0, float32(g.width), float32(g.height), p.Color, false)
			return
		}
		if p.Filled {
			vector.DrawFilledCircle(screen, cx, cy, r, p.Color, true)
		} else {
			vector.StrokeCircle(screen, cx, cy, r, strokeWidth(p), p.Color, true)
		}

	case mapview.ShapeLine:
		x0, y0 := g.screen(p.X, p.Y)
		x1, y1 := g.screen(p.X2, p.Y2)
		if g.offscreen(min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)) {
			return
		}
		if p.Stroke == mapview.StrokeDashed {
			g.dashedLine(screen, x0, y0, x1, y1, strokeWidth(p), p.Color)
			return
		}
		vector.StrokeLine(screen, x0, y0, x1, y1, strokeWidth(p), p.Color, true)

	case mapview.ShapeText:
		g.drawText(screen, p)
	}
}

// coversWindow reports whether a circle contains all four window corners.
func (g *Game) coversWindow(cx, cy, r float32) bool {
	for _, c := range [][2]float32{{0, 0}, {float32(g.width), 0}, {0, float32(g.height)}, {float32(g.width), float32(g.height)}} {
		dx, dy := float64(c[0]-cx), float64(c[1]-cy)
		if math.Hypot(dx, dy) > float64(r) {
			return false
		}
	}
	return true
}

func (g *Game) dashedLine(screen *ebiten.Image, x0, y0, x1, y1, w float32, c color.RGBA) {
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	for t := 0.0; t < length; t += dashOn + dashOff {
		end := math.Min(t+dashOn, length)
		vector.StrokeLine(screen,
			x0+float32(ux*t), y0+float32(uy*t),
			x0+float32(ux*end), y0+float32(uy*end),
			w, c, true)
	}
}

func (g *Game) face(px float64) *text.GoTextFace {
	size := min(int(math.Round(px)), maxTextPx)
	if f, ok := g.faces[size]; ok {
		return f
	}
	f := &text.GoTextFace{Source: g.fontSource, Size: float64(size)}
	g.faces[size] = f
	return f
}

func (g *Game) drawText(screen *ebiten.Image, p mapview.Primitive) {
	px := p.Size * g.view.Zoom
	if g.fontSource == nil || px < minTextPx || p.Text == "" {
		return
	}
	x, y := g.screen(p.X, p.Y)
	reach := float32(px) * float32(len(p.Text))
	if g.offscreen(x-reach, y-reach, x+reach, y+reach) {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(p.Color)
	if p.Center {
		op.PrimaryAlign = text.AlignCenter
		op.SecondaryAlign = text.AlignCenter
	}
	text.Draw(screen, p.Text, g.face(px), op)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	if g.fontSource == nil {
		return
	}
	lines := render.Legend(g.engine.Stats())
	lines = append(lines, fmt.Sprintf("overlay scale %.2f, jump bridges %v", g.engine.OverlayScale(), g.engine.ShowJumpBridges()))
	if g.status != "" {
		lines = append(lines, g.status)
	}
	lines = append(lines, "wheel zoom, drag pan, right-click pick, 1-4/0 metric, +/- scale, J bridges, R rebuild")

	face := g.face(hudFontSize)
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, float64(8+i*hudLineHeight))
		op.ColorScale.ScaleWithColor(hudColor)
		text.Draw(screen, line, face, op)
	}
}
