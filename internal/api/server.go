package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"eve-starmap/internal/config"
	"eve-starmap/internal/db"
	"eve-starmap/internal/esi"
	"eve-starmap/internal/graph"
	"eve-starmap/internal/logger"
	"eve-starmap/internal/mapview"
	"eve-starmap/internal/metrics"
	"eve-starmap/internal/sde"
)

// Server is the HTTP API server that connects the map engine, the ESI
// telemetry client and the database. Every engine call and every counter
// mutation happens under mu.
type Server struct {
	cfg     *config.Config
	esi     *esi.Client
	db      *db.DB
	metrics *metrics.Collector

	mu        sync.Mutex
	universe  *graph.Universe
	engine    *mapview.Engine
	seed      mapview.Bounds
	ready     bool
	lastFetch time.Time
}

// NewServer creates a Server. esiClient, database and collector may be nil.
func NewServer(cfg *config.Config, esiClient *esi.Client, database *db.DB, collector *metrics.Collector) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cfg:     cfg,
		esi:     esiClient,
		db:      database,
		metrics: collector,
		seed:    mapview.SentinelBounds(),
	}
}

// SetSDE is called when SDE data finishes loading.
func (s *Server) SetSDE(data *sde.Data) {
	s.SetUniverse(data.Universe, sde.GalaxyBounds())
}

// SetUniverse installs a graph, restores persisted jump bridges and counters,
// and builds the engine over it.
func (s *Server) SetUniverse(u *graph.Universe, seed mapview.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		u.SetJumpBridges(s.db.GetJumpBridges())
		if stats, at := s.db.LoadTelemetry(); len(stats) > 0 {
			n := u.ApplyTelemetry(stats)
			s.lastFetch = at
			logger.Info("Map", fmt.Sprintf("Restored telemetry for %d systems from %s", n, at.Format(time.RFC3339)))
		}
	}
	s.universe = u
	s.seed = seed
	if err := s.rebuildEngine(); err != nil {
		logger.Error("Map", fmt.Sprintf("Engine init failed: %v", err))
		return
	}
	s.ready = true
}

// rebuildEngine replaces the engine with one built from the current config.
// Caller holds mu.
func (s *Server) rebuildEngine() error {
	opts := mapview.OptionsFromConfig(s.cfg)
	opts.Seed = s.seed
	e := mapview.NewEngine(s.universe, opts)
	applyProperties(e, s.cfg)

	start := time.Now()
	if err := e.Initialize(); err != nil {
		return err
	}
	s.metrics.ObserveRefresh(true, time.Since(start), e.OverlayCount())

	st := e.Stats()
	s.metrics.SetSceneCounts(st.Systems, st.Links)
	if st.SkippedJumps > 0 {
		logger.Warn("Map", fmt.Sprintf("Skipped %d gate jumps to unknown systems", st.SkippedJumps))
	}
	if st.SkippedBridges > 0 {
		logger.Warn("Map", fmt.Sprintf("Skipped %d jump bridges naming unknown systems", st.SkippedBridges))
	}
	if s.engine != nil {
		e.ZoomChanged(s.engine.Zoom())
	}
	s.engine = e
	return nil
}

// applyProperties copies the overlay settings from cfg onto e.
func applyProperties(e *mapview.Engine, cfg *config.Config) {
	m, err := mapview.ParseMetric(cfg.OverlayMetric)
	if err != nil {
		logger.Warn("Config", err.Error())
	}
	e.SetMetric(m)
	e.SetOverlayScale(cfg.OverlayScale)
	e.SetShowJumpBridges(cfg.ShowJumpBridges)
}

// withEngine runs fn under the lock, or writes 503 if no map is loaded yet.
func (s *Server) withEngine(w http.ResponseWriter, fn func(e *mapview.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || s.engine == nil {
		writeError(w, 503, "SDE not loaded yet")
		return
	}
	fn(s.engine)
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/systems/autocomplete", s.handleAutocomplete)
	// Map
	mux.HandleFunc("GET /api/map/scene", s.handleScene)
	mux.HandleFunc("GET /api/map/layers/{name}", s.handleLayer)
	mux.HandleFunc("POST /api/map/pick", s.handlePick)
	mux.HandleFunc("POST /api/map/zoom", s.handleZoom)
	mux.HandleFunc("POST /api/map/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/map/render.png", s.handleRender)
	// Jump bridges
	mux.HandleFunc("GET /api/jumpbridges", s.handleGetJumpBridges)
	mux.HandleFunc("POST /api/jumpbridges", s.handleAddJumpBridge)
	mux.HandleFunc("DELETE /api/jumpbridges/{id}", s.handleDeleteJumpBridge)
	// Telemetry
	mux.HandleFunc("GET /api/telemetry/history", s.handleTelemetryHistory)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ready := s.ready
	var st mapview.Stats
	if s.engine != nil {
		st = s.engine.Stats()
	}
	lastFetch := s.lastFetch
	s.mu.Unlock()

	result := map[string]interface{}{
		"sde_loaded": ready,
		"map":        st,
	}
	if s.esi != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		result["esi_ok"] = s.esi.HealthCheck(ctx)
		cancel()
	}
	if !lastFetch.IsZero() {
		result["telemetry_fetched_at"] = lastFetch.Unix()
	}
	writeJSON(w, result)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cfg
	fields := map[string]interface{}{
		"canvas_size":            &next.CanvasSize,
		"lod_zoom_threshold":     &next.LODZoomThreshold,
		"range_light_years":      &next.RangeLightYears,
		"refresh_interval_sec":   &next.RefreshIntervalSec,
		"overlay_metric":         &next.OverlayMetric,
		"overlay_scale":          &next.OverlayScale,
		"show_jump_bridges":      &next.ShowJumpBridges,
		"telemetry_enabled":      &next.TelemetryEnabled,
		"telemetry_interval_sec": &next.TelemetryIntervalSec,
		"window_w":               &next.WindowW,
		"window_h":               &next.WindowH,
	}
	for key, raw := range patch {
		dst, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			writeError(w, 400, fmt.Sprintf("invalid %s", key))
			return
		}
	}
	if _, err := mapview.ParseMetric(next.OverlayMetric); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	next.Clamp()

	geometryChanged := next.CanvasSize != s.cfg.CanvasSize ||
		next.LODZoomThreshold != s.cfg.LODZoomThreshold ||
		next.RangeLightYears != s.cfg.RangeLightYears
	*s.cfg = next

	if s.db != nil {
		if err := s.db.SaveConfig(s.cfg); err != nil {
			logger.Error("Config", fmt.Sprintf("Save failed: %v", err))
		}
	}
	if s.ready {
		if geometryChanged {
			if err := s.rebuildEngine(); err != nil {
				logger.Error("Map", fmt.Sprintf("Rebuild failed: %v", err))
			}
		} else {
			applyProperties(s.engine, s.cfg)
			s.engine.Sync()
		}
	}
	writeJSON(w, s.cfg)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	s.mu.Lock()
	var names []string
	if s.ready && q != "" {
		names = s.universe.SystemNames()
	}
	s.mu.Unlock()

	prefix, contains := []string{}, []string{}
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, q) {
			prefix = append(prefix, name)
		} else if strings.Contains(lower, q) {
			contains = append(contains, name)
		}
	}

	result := append(prefix, contains...)
	if len(result) > 15 {
		result = result[:15]
	}
	writeJSON(w, map[string][]string{"systems": result})
}

func (s *Server) handleTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, []db.FetchRecord{})
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	history := s.db.GetFetchHistory(limit)
	if history == nil {
		history = []db.FetchRecord{}
	}
	writeJSON(w, history)
}
