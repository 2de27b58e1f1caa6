package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/store"
	"github.com/strip-admin-api/internal/validation"
)

// StripOptions configures asset naming and upload limits
type StripOptions struct {
	SiteBasePath  string
	AssetDir      string
	MaxUploadSize int64
	Now           func() time.Time
}

// stripService is the concrete implementation of StripService
type stripService struct {
	index     store.IndexStore
	assets    store.AssetStore
	validator *validation.Validator
	opts      StripOptions
	log       zerolog.Logger
}

// NewStripService creates a StripService over the given stores
func NewStripService(index store.IndexStore, assets store.AssetStore, opts StripOptions, log zerolog.Logger) StripService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &stripService{
		index:     index,
		assets:    assets,
		validator: validation.NewValidator(opts.MaxUploadSize),
		opts:      opts,
		log:       log.With().Str("service", "strips").Logger(),
	}
}

// List returns the current index
func (s *stripService) List(ctx context.Context) ([]models.StripRecord, error) {
	idx, _, err := s.index.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return idx.Strips, nil
}

// Get returns the record with the given id from a fresh read
func (s *stripService) Get(ctx context.Context, id string) (*models.StripRecord, error) {
	idx, _, err := s.index.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	record := idx.Find(id)
	if record == nil {
		return nil, fmt.Errorf("strip %s: %w", id, store.ErrNotFound)
	}
	return record, nil
}

// Upload validates the submission, stores the asset and prepends a new
// record to the index. Validation happens before any store call. A failed
// index read or write leaves the stored asset orphaned; retrying uploads it
// again under a new filename and allocates a new id. Once the asset write
// starts the workflow ignores cancellation of ctx.
func (s *stripService) Upload(ctx context.Context, req *models.UploadRequest) (*models.StripRecord, error) {
	mediaType, title, err := s.validator.ValidateUpload(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	filename := fmt.Sprintf("strip-%s-%d.%s", req.PublishDate, s.opts.Now().UnixMilli(), validation.Extension(req.Filename))
	url := models.AssetURL(s.opts.SiteBasePath, s.opts.AssetDir, filename)

	label := filename
	if title != nil {
		label = *title
	}
	message := "Add strip: " + label

	var (
		idx    models.StripIndex
		token  store.VersionToken
		record models.StripRecord
	)

	err = runSaga(ctx, s.log, "upload", []sagaStep{
		{
			name: "store asset",
			run: func(ctx context.Context) error {
				return s.assets.Put(ctx, filename, req.Data, message)
			},
			leftover: "orphaned asset " + filename,
		},
		{
			name: "read index",
			run: func(ctx context.Context) error {
				var err error
				idx, token, err = s.index.Read(ctx)
				return err
			},
		},
		{
			name: "write index",
			run: func(ctx context.Context) error {
				record = models.StripRecord{
					ID:          idx.NextID(),
					Title:       title,
					MediaType:   mediaType,
					PublishDate: req.PublishDate,
				}
				if mediaType == models.MediaTypeVideo {
					record.VideoURL = url
				} else {
					record.ImageURL = url
				}
				if err := record.Validate(); err != nil {
					return err
				}
				idx.Prepend(record)
				_, err := s.index.Write(ctx, idx, token, message)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("strip_id", record.ID).
		Str("media_type", string(record.MediaType)).
		Str("file", filename).
		Int("size_bytes", len(req.Data)).
		Msg("Strip uploaded")

	return &record, nil
}

// Delete removes the asset best-effort, then removes the record from the
// index. Asset failures are logged and never abort; index failures do.
// Cancellation of ctx is ignored once the workflow starts.
func (s *stripService) Delete(ctx context.Context, record models.StripRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	message := "Remove strip: " + record.ID

	if filename := record.AssetFilename(); filename != "" {
		if err := s.assets.Delete(ctx, filename, message); err != nil {
			event := s.log.Warn()
			if errors.Is(err, store.ErrNotFound) {
				event = s.log.Info()
			}
			event.Err(err).Str("strip_id", record.ID).Str("file", filename).Msg("Asset not deleted, continuing")
		}
	}

	var (
		idx   models.StripIndex
		token store.VersionToken
	)
	err := runSaga(ctx, s.log, "delete", []sagaStep{
		{
			name: "read index",
			run: func(ctx context.Context) error {
				var err error
				idx, token, err = s.index.Read(ctx)
				return err
			},
		},
		{
			name: "write index",
			run: func(ctx context.Context) error {
				if !idx.Remove(record.ID) {
					return fmt.Errorf("strip %s: %w", record.ID, store.ErrNotFound)
				}
				_, err := s.index.Write(ctx, idx, token, message)
				return err
			},
		},
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("strip_id", record.ID).Msg("Strip deleted")
	return nil
}
