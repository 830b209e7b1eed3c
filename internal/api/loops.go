package api

import (
	"context"
	"fmt"
	"time"

	"eve-starmap/internal/db"
	"eve-starmap/internal/logger"
)

// RunRefreshLoop redraws the overlay every RefreshIntervalSec until ctx is
// cancelled. When systems have moved outside the last bounds the tick does a
// full rebuild instead.
func (s *Server) RunRefreshLoop(ctx context.Context) {
	s.mu.Lock()
	interval := time.Duration(s.cfg.RefreshIntervalSec) * time.Second
	s.mu.Unlock()
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one refresh under the lock.
func (s *Server) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || s.engine == nil {
		return
	}
	full := s.engine.BoundsStale()
	if full {
		logger.Warn("Map", "Systems moved outside the map bounds, rebuilding")
	}
	start := time.Now()
	s.engine.Refresh(full)
	s.metrics.ObserveRefresh(full, time.Since(start), s.engine.OverlayCount())
	if full {
		st := s.engine.Stats()
		s.metrics.SetSceneCounts(st.Systems, st.Links)
	}
}

// RunTelemetryLoop polls ESI for system kills and jumps until ctx is cancelled.
// It returns immediately if telemetry is disabled or no ESI client is set.
func (s *Server) RunTelemetryLoop(ctx context.Context) {
	s.mu.Lock()
	enabled := s.cfg.TelemetryEnabled
	interval := time.Duration(s.cfg.TelemetryIntervalSec) * time.Second
	s.mu.Unlock()
	if !enabled || s.esi == nil {
		logger.Info("ESI", "Telemetry polling disabled")
		return
	}

	for {
		if err := s.PollTelemetry(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("ESI", fmt.Sprintf("Telemetry fetch failed: %v", err))
		}
		wait := interval
		if next := s.esi.Cache().NextExpiry(); !next.IsZero() {
			if d := time.Until(next); d > wait {
				wait = d
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// PollTelemetry fetches one snapshot and applies it to the graph. The overlay
// picks the new counters up on the next refresh tick.
func (s *Server) PollTelemetry(ctx context.Context) error {
	if s.esi == nil {
		return fmt.Errorf("no ESI client")
	}
	start := time.Now()
	snap, err := s.esi.FetchTelemetry(ctx)
	s.metrics.ObserveFetch(err)

	rec := db.FetchRecord{DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		rec.Error = err.Error()
		if s.db != nil {
			s.db.InsertFetch(rec)
		}
		return err
	}
	for _, t := range snap.Stats {
		rec.ShipKills += t.ShipKills
		rec.ShipJumps += t.ShipJumps
	}

	s.mu.Lock()
	if s.universe != nil {
		rec.Systems = s.universe.ApplyTelemetry(snap.Stats)
	}
	s.lastFetch = snap.FetchedAt
	s.mu.Unlock()

	if s.db != nil {
		s.db.InsertFetch(rec)
		if err := s.db.SaveTelemetry(snap.Stats, snap.FetchedAt); err != nil {
			logger.Warn("DB", fmt.Sprintf("Save telemetry: %v", err))
		}
	}
	logger.Success("ESI", fmt.Sprintf("Telemetry: %d systems, %d kills, %d jumps in %dms",
		len(snap.Stats), rec.ShipKills, rec.ShipJumps, rec.DurationMs))
	return nil
}
