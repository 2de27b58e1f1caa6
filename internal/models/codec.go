package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const stripsKey = "strips"

// indexMember is a top-level member of the index document. The strips
// member carries no value; it marks where Strips is written.
type indexMember struct {
	key   string
	value json.RawMessage
}

// stripFields has the same fields as StripRecord but no methods, so it
// encodes and decodes with the default rules.
type stripFields struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title"`
	ImageURL    string    `json:"image_url,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	MediaType   MediaType `json:"media_type"`
	PublishDate string    `json:"publish_date"`
}

func (s *StripRecord) fields() stripFields {
	return stripFields{
		ID:          s.ID,
		Title:       s.Title,
		ImageURL:    s.ImageURL,
		VideoURL:    s.VideoURL,
		AudioURL:    s.AudioURL,
		MediaType:   s.MediaType,
		PublishDate: s.PublishDate,
	}
}

func (f stripFields) equal(o stripFields) bool {
	if (f.Title == nil) != (o.Title == nil) {
		return false
	}
	if f.Title != nil && *f.Title != *o.Title {
		return false
	}
	return f.ID == o.ID &&
		f.ImageURL == o.ImageURL &&
		f.VideoURL == o.VideoURL &&
		f.AudioURL == o.AudioURL &&
		f.MediaType == o.MediaType &&
		f.PublishDate == o.PublishDate
}

// UnmarshalJSON decodes the known fields and keeps the original bytes
func (s *StripRecord) UnmarshalJSON(data []byte) error {
	var f stripFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = StripRecord{
		ID:          f.ID,
		Title:       f.Title,
		ImageURL:    f.ImageURL,
		VideoURL:    f.VideoURL,
		AudioURL:    f.AudioURL,
		MediaType:   f.MediaType,
		PublishDate: f.PublishDate,
	}
	if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		s.raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// MarshalJSON returns the original bytes while the decoded fields are
// unchanged, otherwise the canonical encoding.
func (s StripRecord) MarshalJSON() ([]byte, error) {
	current := s.fields()
	if s.raw != nil {
		var decoded stripFields
		if err := json.Unmarshal(s.raw, &decoded); err == nil && decoded.equal(current) {
			return s.raw, nil
		}
	}
	return marshalNoEscape(current)
}

// UnmarshalJSON reads the top-level object member by member so unknown
// members survive a rewrite. A missing or null strips member decodes as empty.
func (idx *StripIndex) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("index document must be a JSON object")
	}

	var (
		members   []indexMember
		strips    = []StripRecord{}
		hasStrips bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}

		if key != stripsKey {
			members = append(members, indexMember{key: key, value: value})
			continue
		}

		var decoded []StripRecord
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("strips: %w", err)
		}
		strips = decoded
		if strips == nil {
			strips = []StripRecord{}
		}
		if !hasStrips {
			members = append(members, indexMember{key: stripsKey})
			hasStrips = true
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	idx.Strips = strips
	idx.members = members
	return nil
}

// MarshalJSON writes the members in their original order, with strips
// last when the document had none.
func (idx StripIndex) MarshalJSON() ([]byte, error) {
	members := idx.members
	hasStrips := false
	for _, m := range members {
		if m.key == stripsKey {
			hasStrips = true
			break
		}
	}
	if !hasStrips {
		members = append(members[:len(members):len(members)], indexMember{key: stripsKey})
	}

	strips := idx.Strips
	if strips == nil {
		strips = []StripRecord{}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value := []byte(m.value)
		if m.key == stripsKey {
			if value, err = marshalNoEscape(strips); err != nil {
				return nil, err
			}
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeIndex renders the index document as two-space indented JSON
// without HTML escaping and without a trailing newline. Records and members
// read from an earlier document keep their key order and unknown fields.
func EncodeIndex(idx StripIndex) ([]byte, error) {
	compact, err := idx.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode strip index: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to encode strip index: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeIndex parses an index document. A missing strips array decodes as empty.
func DecodeIndex(data []byte) (StripIndex, error) {
	var idx StripIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return StripIndex{}, fmt.Errorf("failed to decode strip index: %w", err)
	}
	if idx.Strips == nil {
		idx.Strips = []StripRecord{}
	}
	return idx, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
