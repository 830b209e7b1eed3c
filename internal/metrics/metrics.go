// Package metrics exposes Prometheus instruments for the map engine and its
// telemetry poller.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the map's Prometheus metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RefreshDuration *prometheus.HistogramVec
	Picks           *prometheus.CounterVec
	TelemetryFetch  *prometheus.CounterVec

	OverlayGlyphs prometheus.Gauge
	RangeMarkers  prometheus.Gauge
	SceneSystems  prometheus.Gauge
	SceneLinks    prometheus.Gauge
}

// NewCollector registers the map metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice on the same registry
// returns the already registered instruments.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	refresh, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starmap_refresh_duration_seconds",
		Help:    "Scene refresh latency in seconds, labeled by whether static layers were rebuilt.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"full"}), "starmap_refresh_duration_seconds")
	if err != nil {
		return nil, err
	}

	picks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "starmap_picks_total",
		Help: "Pick events, labeled by whether a system was hit.",
	}, []string{"hit"}), "starmap_picks_total")
	if err != nil {
		return nil, err
	}

	fetches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "starmap_telemetry_fetches_total",
		Help: "ESI telemetry polls, labeled by result (ok or error).",
	}, []string{"result"}), "starmap_telemetry_fetches_total")
	if err != nil {
		return nil, err
	}

	glyphs, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starmap_overlay_glyphs",
		Help: "Glyphs drawn in the data overlay by the last refresh.",
	}), "starmap_overlay_glyphs")
	if err != nil {
		return nil, err
	}
	markers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starmap_range_markers",
		Help: "Systems marked in range of the current selection.",
	}), "starmap_range_markers")
	if err != nil {
		return nil, err
	}
	systems, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starmap_scene_systems",
		Help: "Systems in the scene after the last full rebuild.",
	}), "starmap_scene_systems")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starmap_scene_links",
		Help: "Deduplicated gate links in the scene after the last full rebuild.",
	}), "starmap_scene_links")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		RefreshDuration: refresh,
		Picks:           picks,
		TelemetryFetch:  fetches,
		OverlayGlyphs:   glyphs,
		RangeMarkers:    markers,
		SceneSystems:    systems,
		SceneLinks:      links,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRefresh records one refresh and the resulting overlay size.
func (c *Collector) ObserveRefresh(full bool, took time.Duration, glyphs int) {
	if c == nil {
		return
	}
	c.RefreshDuration.WithLabelValues(strconv.FormatBool(full)).Observe(took.Seconds())
	c.OverlayGlyphs.Set(float64(glyphs))
}

// ObservePick records a pick and, on a hit, the number of in-range markers.
func (c *Collector) ObservePick(hit bool, markers int) {
	if c == nil {
		return
	}
	c.Picks.WithLabelValues(strconv.FormatBool(hit)).Inc()
	c.RangeMarkers.Set(float64(markers))
}

// ObserveFetch records a telemetry poll outcome.
func (c *Collector) ObserveFetch(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.TelemetryFetch.WithLabelValues(result).Inc()
}

// SetSceneCounts records the static scene size.
func (c *Collector) SetSceneCounts(systems, links int) {
	if c == nil {
		return
	}
	c.SceneSystems.Set(float64(systems))
	c.SceneLinks.Set(float64(links))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
