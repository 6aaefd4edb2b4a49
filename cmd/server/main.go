package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/api"
	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/config"
	"github.com/gyaneshwarpardhi/orderflow/internal/dispatch"
	"github.com/gyaneshwarpardhi/orderflow/internal/pipeline"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/orderflow.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Channel registry ──────────────────────────────────────────────────────
	var reg channel.Registry
	if cfg.Kafka.Brokers != "" {
		kr := channel.NewKafka(cfg.Kafka.Brokers, cfg.Destinations)
		defer kr.Close()
		reg = kr
		slog.Info("kafka registry", "brokers", cfg.Kafka.Brokers)
	} else {
		reg = channel.NewMemory(cfg.Engine.QueueDepth)
		slog.Warn("no kafka brokers configured, using in-memory registry")
	}

	// ── Dispatch engine ───────────────────────────────────────────────────────
	eng := dispatch.New(reg, cfg.SourceService)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := pipeline.NewRunner(reg, cfg.Kafka.ConsumerGroup)
	bindings := make([]pipeline.Binding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		bindings = append(bindings, pipeline.Binding{Stage: b.Stage, Input: b.Input, Output: b.Output})
	}
	if err := runner.Start(ctx, bindings, cfg.Engine.StageWorkers, cfg.Engine.QueueDepth); err != nil {
		slog.Error("failed to start pipeline", "err", err)
		os.Exit(1)
	}
	slog.Info("pipeline started", "bindings", len(bindings), "workers", cfg.Engine.StageWorkers)

	// Hot reload only revalidates; binding changes need a restart because
	// consumer goroutines hold their destinations for the process lifetime.
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		slog.Info("config reloaded (binding changes take effect on restart)")
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, runner, cfg.Engine.MaxRetries)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop consumers and worker pool
	runner.Shutdown()
	slog.Info("goodbye")
}
