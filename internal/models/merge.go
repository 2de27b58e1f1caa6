package models

import (
	"slices"
	"strings"
)

// Merge combines records from a secondary source with the local index.
// Secondary records come first and win on id collision; local records whose
// id is absent from the secondary source are appended. The result is sorted
// by publish_date descending with a stable sort, so same-date entries keep
// their concatenation order.
func Merge(secondary, local []StripRecord) []StripRecord {
	seen := make(map[string]bool, len(secondary))
	for _, s := range secondary {
		seen[s.ID] = true
	}

	merged := make([]StripRecord, 0, len(secondary)+len(local))
	merged = append(merged, secondary...)
	for _, s := range local {
		if !seen[s.ID] {
			merged = append(merged, s)
		}
	}

	// YYYY-MM-DD compares chronologically as a string
	slices.SortStableFunc(merged, func(a, b StripRecord) int {
		return strings.Compare(b.PublishDate, a.PublishDate)
	})
	return merged
}

// NormalizeSourceRecord fills defaults on a record read from the secondary
// source: media_type falls back to image.
func NormalizeSourceRecord(s StripRecord) StripRecord {
	if s.MediaType == "" {
		s.MediaType = MediaTypeImage
	}
	return s
}
