package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lemonwatch/lemonwatch/server/internal/api"
	"github.com/lemonwatch/lemonwatch/server/internal/config"
	"github.com/lemonwatch/lemonwatch/server/internal/source"
	"github.com/lemonwatch/lemonwatch/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults and LEMON_* environment variables")
	uiDir := flag.String("ui-dir", "", "serve the dashboard static files from this directory; leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("lemonwatch-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	chain, err := newChain(cfg)
	if err != nil {
		slog.Error("failed to build source chain", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"stream_interval", cfg.Server.StreamInterval,
		"sources", chain.Names(),
		"confidence_threshold", cfg.Analysis.ConfidenceThreshold,
		"anomaly_threshold", cfg.Analysis.AnomalyThreshold,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	handler := api.New(chain, cfg.Analysis.Options())

	// Thresholds follow the config file; sources and ports need a restart.
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				handler.SetOptions(next.Analysis.Options())
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	hub := ws.New(handler, cfg.Server.StreamInterval)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/api/", handler)
	mux.Handle("/metrics", handler)
	mux.Handle("/ws/stream", hub)

	// The "/" catch-all serves index.html for any unknown path.
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(*uiDir, filepath.Clean("/"+r.URL.Path))
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(*uiDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving dashboard static files", "dir", *uiDir)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("lemonwatch-server shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}

// newChain builds the record source chain from cfg: CSV, SQLite, and
// PostgreSQL in that order, each only when configured, with the synthetic
// generator as the fallback.
func newChain(cfg *config.Config) (*source.Chain, error) {
	var sources []source.Source
	if cfg.Data.CSVPath != "" {
		sources = append(sources, source.NewCSV(cfg.Data.CSVPath))
	}
	if cfg.Data.SQLitePath != "" {
		sources = append(sources, source.NewSQLite(cfg.Data.SQLitePath, cfg.Data.Table))
	}
	if dsn := cfg.Data.PostgresDSN(); dsn != "" {
		sources = append(sources, source.NewPostgres(dsn, cfg.Data.Table))
	}
	synthOpts, err := cfg.Synthetic.Options()
	if err != nil {
		return nil, err
	}
	return source.NewChain(source.NewSynthetic(synthOpts), sources...), nil
}
