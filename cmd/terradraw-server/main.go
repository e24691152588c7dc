// Command terradraw-server is the composition root: it wires a store,
// a FakeAdapter (no real map library ships with this engine — spec.md
// names the adapter as a seam a host implements, not a component this
// module provides), every draw mode plus select mode, and the optional
// metrics/eventlog/redismirror side channels, behind the inspection
// HTTP surface. Grounded on the teacher's cmd/baseline-server/main.go
// (signal-driven lifecycle) and internal/app/server/server.go (wiring
// shape).
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/terradraw-core/internal/adapter"
	"github.com/mohammed-shakir/terradraw-core/internal/config"
	"github.com/mohammed-shakir/terradraw-core/internal/coordinator"
	"github.com/mohammed-shakir/terradraw-core/internal/eventlog"
	"github.com/mohammed-shakir/terradraw-core/internal/httpapi"
	"github.com/mohammed-shakir/terradraw-core/internal/logger"
	"github.com/mohammed-shakir/terradraw-core/internal/metrics"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/mode/draw"
	"github.com/mohammed-shakir/terradraw-core/internal/mode/selectmode"
	"github.com/mohammed-shakir/terradraw-core/internal/snapshot/redismirror"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

var Version = "dev"

func main() {
	cfg := config.FromEnv()
	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.Console, Component: "terradraw-server"}, nil)
	log.Info().Str("addr", cfg.Addr).Str("version", Version).Msg("starting terradraw-server")

	st := store.New()
	a := adapter.NewFakeAdapter()

	coord := coordinator.New(st, a, log, cfg.SpatialIndexRes, cfg.GeoCacheSize)

	mp := metrics.Init(metrics.Config{Namespace: cfg.MetricsNamespace, Build: metrics.BuildInfo{Version: Version}})
	coord.SetMetrics(mp)

	selOpts, err := config.LoadSelectOptions(cfg.FlagsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FlagsPath).Msg("loading select flags")
	}

	for _, m := range []mode.Mode{
		draw.NewPointMode(),
		draw.NewLineStringMode(),
		draw.NewPolygonMode(),
		draw.NewCircleMode(),
		draw.NewRectangleMode(),
		draw.NewFreehandMode(),
		draw.NewGreatCircleMode(),
		selectmode.NewSelectMode(selOpts),
	} {
		if err := coord.Register(m, cfg.PointerDistancePx); err != nil {
			log.Fatal().Err(err).Str("mode", m.Name()).Msg("registering mode")
		}
	}

	evCfg := eventlog.Config{Enabled: cfg.KafkaEnabled, Brokers: splitCSV(cfg.KafkaBrokers), Topic: cfg.KafkaTopic}
	producer := eventlog.New(evCfg, log, st, mp.Registerer())
	defer func() { _ = producer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mirror *redismirror.Mirror
	if cfg.RedisAddr != "" {
		dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
		m, err := redismirror.New(dialCtx, cfg.RedisAddr, 0)
		dialCancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis snapshot mirror disabled: dial failed")
		} else {
			mirror = m
			defer func() { _ = mirror.Close() }()
		}
	}

	coord.OnChange(func(ids []string, op string) {
		producer.Publish(ids, op)
		if mirror != nil {
			if err := mirror.Sync(ctx, st, ids, op); err != nil {
				log.Warn().Err(err).Msg("redis snapshot mirror sync failed")
			}
		}
	})

	srv := httpapi.New(httpapi.Config{Addr: cfg.Addr}, log, st, mp, coord.HandleChange)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
		cancel()
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}
	log.Info().Msg("terradraw-server stopped")
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
