package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"agenda/internal/platform/config"
	"agenda/internal/platform/httpserver"
	"agenda/internal/platform/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	a, closeApp, err := newApp(ctx, cfg, log, registry)
	if err != nil {
		log.Error("failed to initialise", "error", err)
		return 1
	}
	defer closeApp()

	if cfg.MetricsAddr != "" {
		srv := httpserver.New(cfg.MetricsAddr, httpserver.NewOpsRouter(registry))
		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
