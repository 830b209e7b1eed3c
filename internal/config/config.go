package config

// Config holds map settings (in-memory representation).
// Persistence is handled by internal/db package.
type Config struct {
	// Scene geometry.
	CanvasSize       float64 `json:"canvas_size"`        // target canvas edge in map units
	LODZoomThreshold float64 `json:"lod_zoom_threshold"` // below: region labels, at/above: system labels
	RangeLightYears  float64 `json:"range_light_years"`  // pick range query radius

	// Live-data overlay.
	RefreshIntervalSec int     `json:"refresh_interval_sec"`
	OverlayMetric      string  `json:"overlay_metric"` // none | npc_kills | pod_kills | ship_kills | ship_jumps
	OverlayScale       float64 `json:"overlay_scale"`
	ShowJumpBridges    bool    `json:"show_jump_bridges"`

	// Telemetry poller (ESI).
	TelemetryEnabled     bool `json:"telemetry_enabled"`
	TelemetryIntervalSec int  `json:"telemetry_interval_sec"`

	// Viewer window.
	WindowW int `json:"window_w"`
	WindowH int `json:"window_h"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		CanvasSize:           5000,
		LODZoomThreshold:     0.8,
		RangeLightYears:      7,
		RefreshIntervalSec:   10,
		OverlayMetric:        "none",
		OverlayScale:         1.0,
		ShowJumpBridges:      true,
		TelemetryEnabled:     true,
		TelemetryIntervalSec: 300,
		WindowW:              1280,
		WindowH:              800,
	}
}

// Clamp forces every field into its valid range, replacing nonsense with defaults.
func (c *Config) Clamp() {
	def := Default()
	if c.CanvasSize < 100 {
		c.CanvasSize = def.CanvasSize
	} else if c.CanvasSize > 50000 {
		c.CanvasSize = 50000
	}
	if c.LODZoomThreshold <= 0 {
		c.LODZoomThreshold = def.LODZoomThreshold
	}
	if c.RangeLightYears < 0 {
		c.RangeLightYears = 0
	} else if c.RangeLightYears > 100 {
		c.RangeLightYears = 100
	}
	if c.RefreshIntervalSec < 1 {
		c.RefreshIntervalSec = 1
	} else if c.RefreshIntervalSec > 3600 {
		c.RefreshIntervalSec = 3600
	}
	if c.OverlayScale < 0 {
		c.OverlayScale = 0
	} else if c.OverlayScale > 100 {
		c.OverlayScale = 100
	}
	if c.OverlayMetric == "" {
		c.OverlayMetric = def.OverlayMetric
	}
	// ESI caches system kills/jumps for an hour; polling faster than once a minute is wasted.
	if c.TelemetryIntervalSec < 60 {
		c.TelemetryIntervalSec = 60
	}
	if c.WindowW < 320 {
		c.WindowW = def.WindowW
	}
	if c.WindowH < 240 {
		c.WindowH = def.WindowH
	}
}
