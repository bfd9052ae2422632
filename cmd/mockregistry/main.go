package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agenda/internal/mockregistry"
	"agenda/internal/platform/config"
	"agenda/internal/platform/httpserver"
	"agenda/internal/platform/logger"
	"agenda/internal/refdata/datasets"
)

// main serves canned copies of the remote reference endpoints so the CLI can
// be pointed at localhost during development.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	cities, err := datasets.Fallback(datasets.CitiesName)
	if err != nil {
		log.Error("failed to load embedded cities", "error", err)
		os.Exit(1)
	}
	specialties, err := datasets.Fallback(datasets.SpecialtiesName)
	if err != nil {
		log.Error("failed to load embedded specialties", "error", err)
		os.Exit(1)
	}

	handler := mockregistry.New(log, cities, specialties, nil)
	srv := httpserver.New(cfg.MockAddr, handler.Router())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting mock registry", "addr", cfg.MockAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
