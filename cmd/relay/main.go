// Command relay runs the voice relay server: a websocket bridge between
// browser clients and the Gemini Live, OpenAI Realtime and ElevenLabs
// conversational endpoints, plus a small REST surface for conversation
// persistence and agent management.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wandervoice/relay/internal/config"
	"github.com/wandervoice/relay/internal/log"
	"github.com/wandervoice/relay/internal/metrics"
	"github.com/wandervoice/relay/pkg/store"
	"github.com/wandervoice/relay/pkg/web"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	log.Init(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting relay server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.Store.Enabled {
		pg, err := store.NewPostgres(ctx, cfg.Store.DSN)
		if err != nil {
			log.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		log.Info("conversation store connected")
	} else {
		st = store.NewMemory()
		log.Info("conversation store disabled, using in-memory store")
	}

	m := metrics.New()

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	srv := web.NewServer(cfg, st, m)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	cancel()

	if err := srv.Shutdown(); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", "error", err)
		}
	}

	log.Info("relay server stopped")
}
