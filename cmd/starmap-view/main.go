// Command starmap-view opens an interactive window on the galaxy map.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"eve-starmap/internal/config"
	"eve-starmap/internal/db"
	"eve-starmap/internal/esi"
	"eve-starmap/internal/logger"
	"eve-starmap/internal/mapview"
	"eve-starmap/internal/sde"
)

var version = "dev"

func main() {
	dataDir := flag.String("data", "", "SDE cache directory (default ./data)")
	dbPath := flag.String("db", "", "SQLite database path (default ./starmap.db)")
	esiBase := flag.String("esi", esi.DefaultBaseURL, "ESI base URL")
	offline := flag.Bool("offline", false, "do not poll ESI for telemetry")
	flag.Parse()

	logger.Banner(version)

	if *dataDir == "" {
		wd, _ := os.Getwd()
		*dataDir = filepath.Join(wd, "data")
	}
	os.MkdirAll(*dataDir, 0755)

	cfg := config.Default()
	database, err := db.Open(*dbPath)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("Running without persistence: %v", err))
		database = nil
	} else {
		defer database.Close()
		cfg = database.LoadConfig()
	}

	data, err := sde.Load(*dataDir)
	if err != nil {
		logger.Error("SDE", fmt.Sprintf("Load failed: %v", err))
		os.Exit(1)
	}
	u := data.Universe
	if database != nil {
		u.SetJumpBridges(database.GetJumpBridges())
		if stats, _ := database.LoadTelemetry(); len(stats) > 0 {
			u.ApplyTelemetry(stats)
		}
	}

	opts := mapview.OptionsFromConfig(cfg)
	opts.Seed = sde.GalaxyBounds()
	engine := mapview.NewEngine(u, opts)
	if m, err := mapview.ParseMetric(cfg.OverlayMetric); err == nil {
		engine.SetMetric(m)
	}
	engine.SetOverlayScale(cfg.OverlayScale)
	engine.SetShowJumpBridges(cfg.ShowJumpBridges)
	if err := engine.Initialize(); err != nil {
		logger.Error("Map", err.Error())
		os.Exit(1)
	}
	if st := engine.Stats(); st.SkippedJumps > 0 {
		logger.Warn("Map", fmt.Sprintf("Skipped %d gate jumps to unknown systems", st.SkippedJumps))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry := make(chan *esi.Snapshot, 1)
	if cfg.TelemetryEnabled && !*offline {
		go pollTelemetry(ctx, esi.NewClient(*esiBase), database,
			time.Duration(cfg.TelemetryIntervalSec)*time.Second, telemetry)
	}

	g := newGame(engine, u, cfg, telemetry)
	ebiten.SetWindowSize(cfg.WindowW, cfg.WindowH)
	ebiten.SetWindowTitle("EVE Star Map")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("View", err.Error())
		os.Exit(1)
	}
}

// pollTelemetry fetches ESI kills and jumps on an interval and hands each
// snapshot to the game loop. The game applies it inside Update.
func pollTelemetry(ctx context.Context, client *esi.Client, database *db.DB, interval time.Duration, out chan<- *esi.Snapshot) {
	for {
		snap, err := client.FetchTelemetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("ESI", fmt.Sprintf("Telemetry fetch failed: %v", err))
		} else {
			if database != nil {
				if err := database.SaveTelemetry(snap.Stats, snap.FetchedAt); err != nil {
					logger.Warn("DB", fmt.Sprintf("Save telemetry: %v", err))
				}
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
