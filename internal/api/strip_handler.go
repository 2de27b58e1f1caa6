package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/service"
	"github.com/strip-admin-api/internal/store"
	"github.com/strip-admin-api/internal/validation"
)

// multipart framing allowance on top of the file ceiling
const formOverhead = 1 << 20

// StripHandler handles strip listing, upload and delete
type StripHandler struct {
	services  *service.Services
	validator *validation.Validator
	maxSize   int64
	log       zerolog.Logger
}

// NewStripHandler creates a new StripHandler
func NewStripHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *StripHandler {
	maxSize := cfg.Upload.MaxUploadSize
	if maxSize <= 0 {
		maxSize = validation.DefaultMaxFileSize
	}
	return &StripHandler{
		services:  services,
		validator: validation.NewValidator(maxSize),
		maxSize:   maxSize,
		log:       log.With().Str("handler", "strip").Logger(),
	}
}

// ListPublic handles GET /v1/strips
func (h *StripHandler) ListPublic(c *gin.Context) {
	idx, err := h.services.Public.FetchIndex(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

// List handles GET /v1/admin/strips
func (h *StripHandler) List(c *gin.Context) {
	strips, err := h.services.Strips.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if strips == nil {
		strips = []models.StripRecord{}
	}
	c.JSON(http.StatusOK, models.StripIndex{Strips: strips})
}

// Upload handles POST /v1/admin/strips (multipart: file, title, publish_date)
func (h *StripHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+formOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, validation.Errors(h.validator.ValidateFileSize(h.maxSize+1)))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if errs := h.validator.ValidateFileSize(header.Size); len(errs) > 0 {
		h.respondError(c, validation.Errors(errs))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	req := &models.UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Title:       c.PostForm("title"),
		PublishDate: c.PostForm("publish_date"),
	}

	record, err := h.services.Strips.Upload(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().Str("id", record.ID).Str("filename", header.Filename).Msg("Strip uploaded")
	c.JSON(http.StatusCreated, record)
}

// Delete handles DELETE /v1/admin/strips/:id
func (h *StripHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	record, err := h.services.Strips.Get(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.services.Strips.Delete(ctx, *record); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().Str("id", id).Msg("Strip deleted")
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

// respondError maps the service error taxonomy onto status codes
func (h *StripHandler) respondError(c *gin.Context, err error) {
	var verrs validation.Errors
	var terr *store.TransportError

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": verrs})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "strip not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "index changed since it was read, reload and retry"})
	case errors.As(err, &terr):
		h.log.Error().Err(err).Int("status_code", terr.StatusCode).Msg("Storage request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": terr.Error()})
	default:
		h.log.Error().Err(err).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
