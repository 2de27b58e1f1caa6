// Command recover rebuilds the strip index from the secondary record source.
// Records the source knows replace local ones; local-only records are kept.
// Failures are logged and the process still exits 0.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/service"
	"github.com/strip-admin-api/internal/source"
	"github.com/strip-admin-api/internal/store"
	"github.com/strip-admin-api/pkg/logger"
)

func main() {
	log := logger.New("strip-recover")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error().Err(err).Msg("Recovery failed")
		return
	}
	log.Info().Msg("Recovery complete")
}

func run(ctx context.Context, log zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Source.Validate(); err != nil {
		return err
	}

	src, err := source.New(&cfg.Source, log)
	if err != nil {
		return err
	}
	defer src.Close()

	stores, err := store.New(cfg, log)
	if err != nil {
		return err
	}

	result, err := service.NewReconcileService(src, stores.Index, log).Reconcile(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("source", result.SourceCount).
		Int("skipped", result.Skipped).
		Int("local", result.LocalCount).
		Int("additional_local", result.AdditionalLocal).
		Int("total", result.Total).
		Msg("Index rebuilt")
	return nil
}
