package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"eve-starmap/internal/mapview"
	"eve-starmap/internal/render"
)

// Jump radius reported with every pick.
const pickJumpRadius = 5

// Largest image edge served by render.png.
const maxRenderPx = 4096

type layerInfo struct {
	Name       mapview.LayerName `json:"name"`
	Attached   bool              `json:"attached"`
	Primitives int               `json:"primitives"`
}

type layerItem struct {
	mapview.Primitive
	Ref mapview.Ref `json:"ref"`
}

// rangeEntry extends a range report row with the gate route length.
type rangeEntry struct {
	mapview.RangeEntry
	GateJumps int `json:"gate_jumps"` // -1 when unreachable by gates
}

type pickResponse struct {
	Hit         bool          `json:"hit"`
	SystemID    int32         `json:"system_id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Security    float64       `json:"security,omitempty"`
	Position    mapview.Point `json:"position"`
	RangeLY     float64       `json:"range_ly,omitempty"`
	RangeRadius float64       `json:"range_radius,omitempty"`
	InRange     []rangeEntry  `json:"in_range,omitempty"`
	WithinJumps int           `json:"within_jumps,omitempty"`
	JumpRadius  int           `json:"jump_radius,omitempty"`
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, func(e *mapview.Engine) {
		scene := e.Scene()
		var layers []layerInfo
		for _, name := range mapview.LayerNames() {
			layers = append(layers, layerInfo{
				Name:       name,
				Attached:   scene.IsAttached(name),
				Primitives: scene.Layer(name).Len(),
			})
		}
		result := map[string]interface{}{
			"stats":  e.Stats(),
			"layers": layers,
			"mapper": e.Mapper(),
		}
		if sel, ok := e.Selected(); ok {
			result["selected"] = sel
		}
		writeJSON(w, result)
	})
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	name := mapview.LayerName(r.PathValue("name"))
	s.withEngine(w, func(e *mapview.Engine) {
		layer := e.Scene().Layer(name)
		if layer == nil {
			writeError(w, 404, fmt.Sprintf("unknown layer %q", name))
			return
		}
		items := make([]layerItem, 0, layer.Len())
		for id, p := range layer.Primitives() {
			ref, _ := layer.Ref(id)
			items = append(items, layerItem{Primitive: p, Ref: ref})
		}
		writeJSON(w, map[string]interface{}{
			"name":       name,
			"attached":   e.Scene().IsAttached(name),
			"primitives": items,
		})
	})
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		System string   `json:"system"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if req.System == "" && (req.X == nil || req.Y == nil) {
		writeError(w, 400, "x and y, or system, required")
		return
	}

	s.withEngine(w, func(e *mapview.Engine) {
		var (
			res mapview.PickResult
			ok  bool
		)
		if req.System != "" {
			res, ok = e.SelectSystem(req.System)
		} else {
			res, ok = e.Pick(mapview.Point{X: *req.X, Y: *req.Y})
		}
		s.metrics.ObservePick(ok, len(res.InRange))
		if !ok {
			writeJSON(w, pickResponse{Hit: false})
			return
		}

		out := pickResponse{
			Hit:         true,
			SystemID:    res.System.ID,
			Name:        res.Name,
			Security:    res.System.Security,
			Position:    res.Position,
			RangeLY:     res.RangeLY,
			RangeRadius: res.RangeRadius,
			InRange:     make([]rangeEntry, 0, len(res.InRange)),
			WithinJumps: len(s.universe.SystemsWithinRadius(res.System.ID, pickJumpRadius)) - 1,
			JumpRadius:  pickJumpRadius,
		}
		for _, entry := range res.InRange {
			out.InRange = append(out.InRange, rangeEntry{
				RangeEntry: entry,
				GateJumps:  s.universe.ShortestPath(res.System.ID, entry.SystemID),
			})
		}
		writeJSON(w, out)
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Zoom float64 `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if req.Zoom <= 0 {
		writeError(w, 400, "zoom must be positive")
		return
	}
	s.withEngine(w, func(e *mapview.Engine) {
		changed := e.ZoomChanged(req.Zoom)
		writeJSON(w, map[string]interface{}{
			"zoom":    e.Zoom(),
			"lod":     e.LOD(),
			"changed": changed,
		})
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Full bool `json:"full"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, 400, "invalid json")
		return
	}
	s.withEngine(w, func(e *mapview.Engine) {
		start := time.Now()
		e.Refresh(req.Full)
		took := time.Since(start)
		s.metrics.ObserveRefresh(req.Full, took, e.OverlayCount())
		if req.Full {
			st := e.Stats()
			s.metrics.SetSceneCounts(st.Systems, st.Links)
		}
		writeJSON(w, map[string]interface{}{
			"full":        req.Full,
			"duration_ms": took.Milliseconds(),
			"stats":       e.Stats(),
		})
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var buf bytes.Buffer
	s.withEngine(w, func(e *mapview.Engine) {
		width := queryInt(q.Get("w"), s.cfg.WindowW)
		height := queryInt(q.Get("h"), s.cfg.WindowH)
		if width <= 0 || height <= 0 || width > maxRenderPx || height > maxRenderPx {
			writeError(w, 400, fmt.Sprintf("w and h must be in 1..%d", maxRenderPx))
			return
		}
		opts := render.DefaultOptions(s.cfg.CanvasSize, width, height)
		if z, err := strconv.ParseFloat(q.Get("zoom"), 64); err == nil && z > 0 {
			opts.Viewport = mapview.Viewport{
				Zoom:    z,
				OffsetX: queryFloat(q.Get("ox"), 0),
				OffsetY: queryFloat(q.Get("oy"), 0),
			}
		}
		if q.Get("legend") != "0" {
			opts.Legend = render.Legend(e.Stats())
		}
		if err := render.PNG(&buf, e.Scene(), opts); err != nil {
			buf.Reset()
			writeError(w, 500, err.Error())
		}
	})
	if buf.Len() == 0 {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func queryInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
