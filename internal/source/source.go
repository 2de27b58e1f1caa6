package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/database"
	"github.com/strip-admin-api/internal/models"
)

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source returns strip records from the secondary store, newest first,
// already normalized (media_type defaulted, optional urls omitted when empty).
type Source interface {
	FetchStrips(ctx context.Context) ([]models.StripRecord, error)
	Close() error
}

// row is the nullable shape shared by the REST and SQL readers
type row struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	ImageURL    *string `json:"image_url"`
	VideoURL    *string `json:"video_url"`
	AudioURL    *string `json:"audio_url"`
	MediaType   *string `json:"media_type"`
	PublishDate string  `json:"publish_date"`
}

func (r row) toRecord() models.StripRecord {
	rec := models.StripRecord{
		ID:          r.ID,
		Title:       r.Title,
		PublishDate: r.PublishDate,
	}
	if r.ImageURL != nil {
		rec.ImageURL = *r.ImageURL
	}
	if r.VideoURL != nil {
		rec.VideoURL = *r.VideoURL
	}
	if r.AudioURL != nil {
		rec.AudioURL = *r.AudioURL
	}
	if r.MediaType != nil {
		rec.MediaType = models.MediaType(*r.MediaType)
	}
	return models.NormalizeSourceRecord(rec)
}

// New opens the configured secondary source
func New(cfg *config.SourceConfig, log zerolog.Logger) (Source, error) {
	if !identRegex.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid source table name %q", cfg.Table)
	}

	switch cfg.Driver {
	case config.SourceDriverREST:
		return NewRESTSource(cfg), nil
	case config.SourceDriverPostgres, config.SourceDriverSQLite:
		db, err := database.New(cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
				db.Close()
				return nil, err
			}
		}
		return NewSQLSource(db, cfg.Table), nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}
