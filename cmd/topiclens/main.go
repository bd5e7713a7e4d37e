// Package main implements the entry point for topiclens, a real-time
// MQTT analytics service: it indexes broker traffic into a topic tree,
// tracks per-topic messages, traffic rates, metric series, device
// health, latency and schema drift, and serves the results over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/c360/topiclens/config"
	"github.com/c360/topiclens/dispatch"
	"github.com/c360/topiclens/gateway"
	"github.com/c360/topiclens/metric"
	"github.com/c360/topiclens/persist"
	"github.com/c360/topiclens/resilience"
	"github.com/c360/topiclens/transport"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "topiclens"
)

// eventBuffer absorbs broker bursts while the dispatcher fans out.
const eventBuffer = 1024

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid")
		return nil
	}

	logger.Info("starting",
		"broker", cfg.Broker.URI(),
		"client_id", cfg.Broker.ClientID,
		"subscriptions", cfg.Broker.SubscribeTopics)

	registry := metric.NewRegistry()
	dispatcher, err := dispatch.New(cfg, registry, logger)
	if err != nil {
		return err
	}

	restoreUserData(cfg, dispatcher, logger)

	backoff, err := resilience.NewBackoff(
		resilience.WithBaseDelay(cfg.Backoff.BaseDelay),
		resilience.WithMaxDelay(cfg.Backoff.MaxDelay),
		resilience.WithMaxAttempts(cfg.Backoff.MaxAttempts),
		resilience.WithJitterFactor(cfg.Backoff.JitterFactor),
	)
	if err != nil {
		return err
	}

	events := make(chan dispatch.Event, eventBuffer)
	client := transport.NewClient(cfg.Broker, backoff, events, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(ctx, events)
		return nil
	})
	g.Go(func() error {
		return client.Run(ctx)
	})
	if cfg.Gateway.Enabled {
		server := gateway.NewServer(cfg.Gateway.Addr, dispatcher, registry, logger)
		g.Go(func() error {
			return server.Start(ctx)
		})
	}

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// restoreUserData re-arms saved metric definitions from the user data
// file, when one exists.
func restoreUserData(cfg *config.Config, dispatcher *dispatch.Dispatcher, logger *slog.Logger) {
	path := cfg.Persist.Path
	if path == "" {
		path = persist.DefaultPath()
	}
	userData, err := persist.Load(path)
	if err != nil {
		logger.Warn("user data unavailable", "path", path, "error", err)
		return
	}
	for _, m := range userData.TrackedMetrics {
		dispatcher.TrackMetric(m.Label, m.TopicPattern, m.FieldPath)
	}
	if n := len(userData.TrackedMetrics); n > 0 {
		logger.Info("restored tracked metrics", "count", n)
	}
}
