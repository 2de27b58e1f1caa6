package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/source"
	"github.com/strip-admin-api/internal/store"
)

// ReconcileResult summarizes a reconciliation run
type ReconcileResult struct {
	SourceCount     int `json:"source_count"`
	Skipped         int `json:"skipped"`
	LocalCount      int `json:"local_count"`
	AdditionalLocal int `json:"additional_local"`
	Total           int `json:"total"`
}

type reconcileService struct {
	source source.Source
	index  store.IndexStore
	log    zerolog.Logger
}

// NewReconcileService creates a ReconcileService reading from src into index
func NewReconcileService(src source.Source, index store.IndexStore, log zerolog.Logger) ReconcileService {
	return &reconcileService{
		source: src,
		index:  index,
		log:    log.With().Str("service", "reconcile").Logger(),
	}
}

// Reconcile overwrites the index with the secondary records plus any local
// records the source does not know, sorted newest first. Local edits to
// records that also exist in the source are discarded. Source rows that
// fail record validation are logged and left out.
func (s *reconcileService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	s.log.Info().Msg("Fetching strips from source")
	fetched, err := s.source.FetchStrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source strips: %w", err)
	}
	s.log.Info().Int("count", len(fetched)).Msgf("Found %d strips", len(fetched))

	secondary := make([]models.StripRecord, 0, len(fetched))
	for _, record := range fetched {
		if err := record.Validate(); err != nil {
			s.log.Warn().Err(err).Str("strip_id", record.ID).Msg("Skipping invalid source strip")
			continue
		}
		secondary = append(secondary, record)
	}

	idx, token, err := s.index.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local index: %w", err)
	}

	merged := models.Merge(secondary, idx.Strips)
	result := &ReconcileResult{
		SourceCount:     len(secondary),
		Skipped:         len(fetched) - len(secondary),
		LocalCount:      len(idx.Strips),
		AdditionalLocal: len(merged) - len(secondary),
		Total:           len(merged),
	}

	message := fmt.Sprintf("Recover strips: %d from source, %d local only", result.SourceCount, result.AdditionalLocal)
	idx.Strips = merged
	if _, err := s.index.Write(ctx, idx, token, message); err != nil {
		return nil, fmt.Errorf("failed to write local index: %w", err)
	}

	s.log.Info().
		Int("total", result.Total).
		Int("additional_local", result.AdditionalLocal).
		Msgf("Updated index with %d total strips", result.Total)
	return result, nil
}
