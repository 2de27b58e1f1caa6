package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/store"
)

type publicReader struct {
	client *http.Client
	url    string
}

// NewPublicReader creates a PublicReader for the published index document
func NewPublicReader(cfg *config.PublicConfig) PublicReader {
	return &publicReader{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.IndexURL,
	}
}

// FetchIndex re-fetches the published index on every call
func (r *publicReader) FetchIndex(ctx context.Context) (models.StripIndex, error) {
	op := "load " + r.url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return models.StripIndex{}, &store.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.StripIndex{}, &store.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.StripIndex{}, &store.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("could not load strip index: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.StripIndex{}, &store.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return models.DecodeIndex(data)
}
