package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/tablescout/api"
	"github.com/use-agent/tablescout/cache"
	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/harvest"
	"github.com/use-agent/tablescout/provider"
	"github.com/use-agent/tablescout/store"
	"github.com/use-agent/tablescout/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("tablescout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"provider", cfg.Provider,
		"target", cfg.Target.URL,
	)

	// ── 3. Document provider (may launch a browser) ─────────────────
	prov, err := provider.Build(cfg)
	if err != nil {
		slog.Error("failed to initialise provider", "error", err)
		os.Exit(1)
	}
	defer prov.Close()

	// ── 4. Persistence, cache, notifications ────────────────────────
	st := store.New(cfg.Store.DataFile)
	cc := cache.New(cfg.Cache.MaxEntries, time.Hour)
	defer cc.Stop()
	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)

	// ── 5. Pipeline ─────────────────────────────────────────────────
	opts := harvest.Options{
		TargetURL: cfg.Target.URL,
		Timeout:   cfg.Scraper.Timeout,
		Threshold: cfg.Extract.Threshold,
		MinLength: cfg.Extract.MinLength,
		Store:     st,
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	h := harvest.New(prov.Engine, opts)

	// ── 6. Router ───────────────────────────────────────────────────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps := api.Deps{
		Harvester: h,
		Store:     st,
		Cache:     cc,
		StartTime: time.Now(),
	}
	if prov.Scraper != nil {
		deps.Pool = prov.Scraper
	}
	router := api.NewRouter(ctx, cfg, deps)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// A scrape can take a while; give it the scrape timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.Timeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	notifier.Wait()

	// prov.Close() runs via defer: drains the page pool and kills Chrome.
	slog.Info("tablescout stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
