// Package main is the entry point for the goaleval HTTP service.
//
// Startup order:
// - Load configuration from the environment (.env supported)
// - Wire the DI container (cache database, ticker risk store, history provider, evaluation service)
// - Start the cleanup scheduler
// - Serve the HTTP API until SIGINT or SIGTERM
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/goaleval/internal/config"
	"github.com/aristath/goaleval/internal/di"
	evaluationhandlers "github.com/aristath/goaleval/internal/modules/evaluation/handlers"
	"github.com/aristath/goaleval/internal/server"
	"github.com/aristath/goaleval/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("ticker_cache", cfg.TickerRisk.CacheBackend).
		Int("simulation_paths", cfg.Simulation.NumPaths).
		Msg("Starting goaleval")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close container")
		}
	}()

	if err := container.Scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	srv := server.New(server.Config{
		Log:        log,
		CacheDB:    container.CacheDB,
		Evaluation: evaluationhandlers.NewHandler(container.EvaluationService, log),
		Scheduler:  container.Scheduler,
		DataDir:    cfg.DataDir,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
