package db

import (
	"fmt"
	"strconv"

	"eve-starmap/internal/config"
)

// LoadConfig reads config from SQLite. If empty, returns defaults.
func (d *DB) LoadConfig() *config.Config {
	cfg := config.Default()

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if len(m) == 0 {
		return cfg
	}

	if v, ok := m["canvas_size"]; ok {
		cfg.CanvasSize, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["lod_zoom_threshold"]; ok {
		cfg.LODZoomThreshold, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["range_light_years"]; ok {
		cfg.RangeLightYears, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["refresh_interval_sec"]; ok {
		cfg.RefreshIntervalSec, _ = strconv.Atoi(v)
	}
	if v, ok := m["overlay_metric"]; ok {
		cfg.OverlayMetric = v
	}
	if v, ok := m["overlay_scale"]; ok {
		cfg.OverlayScale, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["show_jump_bridges"]; ok {
		cfg.ShowJumpBridges, _ = strconv.ParseBool(v)
	}
	if v, ok := m["telemetry_enabled"]; ok {
		cfg.TelemetryEnabled, _ = strconv.ParseBool(v)
	}
	if v, ok := m["telemetry_interval_sec"]; ok {
		cfg.TelemetryIntervalSec, _ = strconv.Atoi(v)
	}
	if v, ok := m["window_w"]; ok {
		cfg.WindowW, _ = strconv.Atoi(v)
	}
	if v, ok := m["window_h"]; ok {
		cfg.WindowH, _ = strconv.Atoi(v)
	}

	cfg.Clamp()
	return cfg
}

// SaveConfig writes config to SQLite (upsert all fields).
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		"canvas_size":            fmt.Sprintf("%g", cfg.CanvasSize),
		"lod_zoom_threshold":     fmt.Sprintf("%g", cfg.LODZoomThreshold),
		"range_light_years":      fmt.Sprintf("%g", cfg.RangeLightYears),
		"refresh_interval_sec":   strconv.Itoa(cfg.RefreshIntervalSec),
		"overlay_metric":         cfg.OverlayMetric,
		"overlay_scale":          fmt.Sprintf("%g", cfg.OverlayScale),
		"show_jump_bridges":      strconv.FormatBool(cfg.ShowJumpBridges),
		"telemetry_enabled":      strconv.FormatBool(cfg.TelemetryEnabled),
		"telemetry_interval_sec": strconv.Itoa(cfg.TelemetryIntervalSec),
		"window_w":               strconv.Itoa(cfg.WindowW),
		"window_h":               strconv.Itoa(cfg.WindowH),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
