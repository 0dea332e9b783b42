// Package main runs the long-lived signal service:
// - Scheduled scans (scan.interval): objkt → pipeline → stores, archive, feed
// - HTTP: /objkts, /signals, /runs, /health, /status, /metrics, /ws
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/app"
	"objkt-signal-lab/internal/config"
	"objkt-signal-lab/internal/server/api"
	"objkt-signal-lab/internal/server/ws"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("OBJKT_CONFIG"), "Path to TOML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	interval := flag.Duration("interval", 0, "Scan interval (overrides scan.interval, 0 keeps config)")
	logLevel := flag.String("log-level", "", "Log level (overrides log_level)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *useMemory {
		cfg.UseMemory = true
	}
	if *interval > 0 {
		cfg.Scan.Interval.Duration = *interval
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}

	logger := cfg.NewLogger()
	log := logger.WithField("component", "server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, app.BuildOptions{})
	if err != nil {
		log.WithError(err).Fatal("build app")
	}
	defer a.Close()

	hub := ws.NewHub(logrus.NewEntry(logger))
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("feed hub stopped")
		}
	}()

	srv := api.New(api.Options{
		Runner:       a.Orchestrator(hub),
		SignalStore:  a.Signals,
		RunStore:     a.Runs,
		Feed:         hub.HandleWS,
		HealthChecks: a.HealthChecks,
		Logger:       logrus.NewEntry(logger),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	if err := srv.Schedule(ctx, cfg.Scan.Interval.Duration); err != nil {
		log.WithError(err).Error("scheduler")
		cancel()
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	log.Info("shutdown complete")
}
