package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/store"
)

// restSource reads a table through a PostgREST style endpoint
// ({url}/rest/v1/{table}) authenticated with a service role key.
type restSource struct {
	client  *http.Client
	baseURL string
	table   string
	key     string
}

// NewRESTSource creates a Source for the hosted database REST API
func NewRESTSource(cfg *config.SourceConfig) Source {
	return &restSource{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		table:   cfg.Table,
		key:     cfg.ServiceRoleKey,
	}
}

func (s *restSource) FetchStrips(ctx context.Context) ([]models.StripRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "publish_date.desc")
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, url.PathEscape(s.table), q.Encode())
	op := "fetch " + s.table

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &store.TransportError{Op: op, Err: err}
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &store.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &store.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &store.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode rows: %w", err)}
	}

	strips := make([]models.StripRecord, 0, len(rows))
	for _, r := range rows {
		strips = append(strips, r.toRecord())
	}
	return strips, nil
}

func (s *restSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
