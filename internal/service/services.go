package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/store"
)

// SessionService gates mutations behind the shared admin credential
type SessionService interface {
	Authenticate(secret string) (token string, ok bool)
	IsActive(token string) bool
	Logout(token string)
}

// StripService implements listing, upload and delete against the stores
type StripService interface {
	List(ctx context.Context) ([]models.StripRecord, error)
	Get(ctx context.Context, id string) (*models.StripRecord, error)
	Upload(ctx context.Context, req *models.UploadRequest) (*models.StripRecord, error)
	Delete(ctx context.Context, record models.StripRecord) error
}

// ReconcileService merges the secondary source into the index
type ReconcileService interface {
	Reconcile(ctx context.Context) (*ReconcileResult, error)
}

// PublicReader loads the published index for unauthenticated display
type PublicReader interface {
	FetchIndex(ctx context.Context) (models.StripIndex, error)
}

// Services holds all service interfaces used by the HTTP API
type Services struct {
	Session SessionService
	Strips  StripService
	Public  PublicReader
}

// NewServices creates all services
func NewServices(stores *store.Stores, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	session, err := NewSessionService(&cfg.Admin, log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Public.Validate(); err != nil {
		return nil, err
	}

	strips := NewStripService(stores.Index, stores.Assets, StripOptions{
		SiteBasePath:  cfg.Index.SiteBasePath,
		AssetDir:      cfg.Index.AssetDir,
		MaxUploadSize: cfg.Upload.MaxUploadSize,
	}, log)

	return &Services{
		Session: session,
		Strips:  strips,
		Public:  NewPublicReader(&cfg.Public),
	}, nil
}
