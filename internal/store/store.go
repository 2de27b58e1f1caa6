package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
)

var (
	// ErrNotFound is returned when a document or asset does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write carries a stale version token
	ErrConflict = errors.New("version conflict")
)

// TransportError wraps network, auth and unexpected status failures
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// VersionToken is an opaque value identifying a stored document state
type VersionToken string

// IndexStore is a compare-and-swap store for the strip index document
type IndexStore interface {
	// Read returns the current index and its version token
	Read(ctx context.Context) (models.StripIndex, VersionToken, error)
	// Write persists the full index if token still matches the stored state
	Write(ctx context.Context, idx models.StripIndex, token VersionToken, message string) (VersionToken, error)
}

// AssetStore stores binary media files by filename
type AssetStore interface {
	Put(ctx context.Context, filename string, data []byte, message string) error
	Delete(ctx context.Context, filename string, message string) error
}

// Stores holds the configured backends
type Stores struct {
	Index  IndexStore
	Assets AssetStore
}

// New creates the stores for the configured backend
func New(cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.Index.Backend {
	case config.BackendGitHub:
		client := NewGitHubClient(&cfg.GitHub)
		log.Info().
			Str("backend", cfg.Index.Backend).
			Str("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo).
			Str("branch", cfg.GitHub.Branch).
			Msg("Using hosted repository stores")
		return &Stores{
			Index:  NewGitHubIndexStore(client, cfg.Index.Path),
			Assets: NewGitHubAssetStore(client, cfg.Index.AssetDir),
		}, nil
	case config.BackendFilesystem:
		log.Info().
			Str("backend", cfg.Index.Backend).
			Str("root", cfg.Index.LocalRoot).
			Msg("Using filesystem stores")
		return &Stores{
			Index:  NewFileIndexStore(cfg.Index.LocalRoot, cfg.Index.Path),
			Assets: NewFileAssetStore(cfg.Index.LocalRoot, cfg.Index.AssetDir),
		}, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
