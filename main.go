package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"eve-starmap/internal/api"
	"eve-starmap/internal/db"
	"eve-starmap/internal/esi"
	"eve-starmap/internal/logger"
	"eve-starmap/internal/metrics"
	"eve-starmap/internal/sde"
)

var version = "dev"

func main() {
	port := flag.Int("port", 13380, "HTTP server port")
	dataDir := flag.String("data", "", "SDE cache directory (default ./data)")
	dbPath := flag.String("db", "", "SQLite database path (default ./starmap.db)")
	esiBase := flag.String("esi", esi.DefaultBaseURL, "ESI base URL")
	flag.Parse()

	logger.Banner(version)

	if *dataDir == "" {
		wd, _ := os.Getwd()
		*dataDir = filepath.Join(wd, "data")
	}
	os.MkdirAll(*dataDir, 0755)

	database, err := db.Open(*dbPath)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	cfg := database.LoadConfig()

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		logger.Warn("Metrics", fmt.Sprintf("Disabled: %v", err))
	}

	srv := api.NewServer(cfg, esi.NewClient(*esiBase), database, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load SDE in background
	go func() {
		data, err := sde.Load(*dataDir)
		if err != nil {
			logger.Error("SDE", fmt.Sprintf("Load failed: %v", err))
			return
		}
		srv.SetSDE(data)
		logger.Success("SDE", "Map ready")
	}()

	go srv.RunRefreshLoop(ctx)
	go srv.RunTelemetryLoop(ctx)

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()

	logger.Server(addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
	logger.Info("Server", "Stopped")
}
