package models

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MediaType identifies the kind of asset a strip points at
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ValidMediaTypes defines allowed media types
var ValidMediaTypes = map[MediaType]bool{
	MediaTypeImage: true,
	MediaTypeVideo: true,
}

const (
	// IDPrefix is prepended to every allocated strip number
	IDPrefix = "strip-"

	// MaxTitleLength is the maximum title length in characters
	MaxTitleLength = 200
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// StripRecord is one published comic entry in the index.
// A record decoded from a document keeps its original bytes and encodes
// them unchanged until one of its fields is modified.
type StripRecord struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title"`
	ImageURL    string    `json:"image_url,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	MediaType   MediaType `json:"media_type"`
	PublishDate string    `json:"publish_date"`

	raw json.RawMessage
}

// StripIndex is the persisted index document. Top-level members other than
// strips are carried through in document order.
type StripIndex struct {
	Strips []StripRecord `json:"strips"`

	members []indexMember
}

// UploadRequest carries a pending submission from the admin form
type UploadRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Title       string
	PublishDate string
}

// IsValidDate reports whether s matches the strict YYYY-MM-DD pattern
func IsValidDate(s string) bool {
	return datePattern.MatchString(s)
}

// AssetURL returns the site-relative URL for an asset filename
func AssetURL(basePath, assetDir, filename string) string {
	return path.Join("/", basePath, path.Base(assetDir), filename)
}

// AssetFilename returns the last path segment of whichever media URL is set.
// It returns "" when the record references no asset.
func (s *StripRecord) AssetFilename() string {
	ref := s.ImageURL
	if ref == "" {
		ref = s.VideoURL
	}
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// Validate checks the record-level invariants: an id, a known media type
// with its matching url set, and a strict publish date.
func (s *StripRecord) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !ValidMediaTypes[s.MediaType] {
		return fmt.Errorf("strip %s: invalid media_type %q", s.ID, s.MediaType)
	}
	switch s.MediaType {
	case MediaTypeImage:
		if s.ImageURL == "" {
			return fmt.Errorf("strip %s: image strips need an image_url", s.ID)
		}
	case MediaTypeVideo:
		if s.VideoURL == "" {
			return fmt.Errorf("strip %s: video strips need a video_url", s.ID)
		}
	}
	if !IsValidDate(s.PublishDate) {
		return fmt.Errorf("strip %s: invalid publish_date %q", s.ID, s.PublishDate)
	}
	return nil
}

// NextID allocates the id following the highest numeric suffix in the index.
// Ids without any digits are ignored; an index with no numeric ids yields strip-001.
func (idx *StripIndex) NextID() string {
	max := 0
	for _, s := range idx.Strips {
		digits := nonDigits.ReplaceAllString(s.ID, "")
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", IDPrefix, max+1)
}

// Prepend inserts a record at the front of the index
func (idx *StripIndex) Prepend(record StripRecord) {
	strips := make([]StripRecord, 0, len(idx.Strips)+1)
	strips = append(strips, record)
	idx.Strips = append(strips, idx.Strips...)
}

// Remove drops every record with the given id and reports whether any matched
func (idx *StripIndex) Remove(id string) bool {
	kept := make([]StripRecord, 0, len(idx.Strips))
	for _, s := range idx.Strips {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	removed := len(kept) != len(idx.Strips)
	idx.Strips = kept
	return removed
}

// Find returns the record with the given id, or nil
func (idx *StripIndex) Find(id string) *StripRecord {
	for i := range idx.Strips {
		if idx.Strips[i].ID == id {
			return &idx.Strips[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share the backing array
func (idx *StripIndex) Clone() StripIndex {
	out := StripIndex{
		Strips:  make([]StripRecord, len(idx.Strips)),
		members: slices.Clone(idx.members),
	}
	for i, s := range idx.Strips {
		if s.Title != nil {
			t := *s.Title
			s.Title = &t
		}
		out.Strips[i] = s
	}
	return out
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
