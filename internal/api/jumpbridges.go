package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"eve-starmap/internal/graph"
	"eve-starmap/internal/logger"
)

func (s *Server) handleGetJumpBridges(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, []graph.JumpBridge{})
		return
	}
	bridges := s.db.GetJumpBridges()
	if bridges == nil {
		bridges = []graph.JumpBridge{}
	}
	writeJSON(w, bridges)
}

func (s *Server) handleAddJumpBridge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	req.From = strings.TrimSpace(req.From)
	req.To = strings.TrimSpace(req.To)
	if req.From == "" || req.To == "" {
		writeError(w, 400, "from and to required")
		return
	}
	if strings.EqualFold(req.From, req.To) {
		writeError(w, 400, "a jump bridge needs two different systems")
		return
	}
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Names are stored as canonical SDE spelling when the map knows them.
	if s.universe != nil {
		if sys, ok := s.universe.System(req.From); ok {
			req.From = sys.Name
		}
		if sys, ok := s.universe.System(req.To); ok {
			req.To = sys.Name
		}
	}
	id, ok := s.db.AddJumpBridge(req.From, req.To)
	if !ok {
		writeError(w, 409, "jump bridge already exists")
		return
	}
	logger.Info("Map", fmt.Sprintf("Jump bridge %s <-> %s added", req.From, req.To))
	s.reloadJumpBridges()
	writeJSON(w, graph.JumpBridge{ID: id, From: req.From, To: req.To})
}

func (s *Server) handleDeleteJumpBridge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, 400, "invalid id")
		return
	}
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.db.DeleteJumpBridge(id) {
		writeError(w, 404, "jump bridge not found")
		return
	}
	s.reloadJumpBridges()
	writeJSON(w, map[string]bool{"ok": true})
}

// reloadJumpBridges pushes the stored list into the graph and redraws the map.
// Caller holds mu.
func (s *Server) reloadJumpBridges() {
	if s.universe == nil {
		return
	}
	s.universe.SetJumpBridges(s.db.GetJumpBridges())
	if s.ready && s.engine != nil {
		s.engine.Refresh(true)
		if n := s.engine.Stats().SkippedBridges; n > 0 {
			logger.Warn("Map", fmt.Sprintf("Skipped %d jump bridges naming unknown systems", n))
		}
	}
}
