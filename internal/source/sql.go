package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strip-admin-api/internal/database"
	"github.com/strip-admin-api/internal/models"
)

type sqlSource struct {
	db    *database.DB
	table string
}

// NewSQLSource reads strips from a table in a postgres or sqlite database.
// table must already be a validated identifier.
func NewSQLSource(db *database.DB, table string) Source {
	return &sqlSource{db: db, table: table}
}

func (s *sqlSource) FetchStrips(ctx context.Context) ([]models.StripRecord, error) {
	// CAST keeps DATE columns as YYYY-MM-DD text on both drivers
	query := fmt.Sprintf(`
		SELECT id, title, image_url, video_url, audio_url, media_type, CAST(publish_date AS TEXT)
		FROM %s
		ORDER BY publish_date DESC
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var strips []models.StripRecord
	for rows.Next() {
		var (
			r                                             row
			title, imageURL, videoURL, audioURL, mediaTyp sql.NullString
		)
		if err := rows.Scan(&r.ID, &title, &imageURL, &videoURL, &audioURL, &mediaTyp, &r.PublishDate); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}
		r.Title = nullable(title)
		r.ImageURL = nullable(imageURL)
		r.VideoURL = nullable(videoURL)
		r.AudioURL = nullable(audioURL)
		r.MediaType = nullable(mediaTyp)
		strips = append(strips, r.toRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", s.table, err)
	}
	return strips, nil
}

func (s *sqlSource) Close() error {
	return s.db.Close()
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
