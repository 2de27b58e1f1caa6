package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/strip-admin-api/internal/api"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/service"
	"github.com/strip-admin-api/internal/store"
	"github.com/strip-admin-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New("strip-admin-api")
	log.Info().Msg("Starting strip admin server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Admin.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Admin credential is not configured")
	}

	// Initialize index and asset stores
	stores, err := store.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize stores")
	}

	// Initialize services
	services, err := service.NewServices(stores, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
