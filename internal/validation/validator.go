package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/strip-admin-api/internal/models"
)

// DefaultMaxFileSize is the upload ceiling when none is configured (50MB)
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// allowedExtensions maps each accepted extension to the media type it produces
var allowedExtensions = map[string]models.MediaType{
	"jpg":  models.MediaTypeImage,
	"jpeg": models.MediaTypeImage,
	"png":  models.MediaTypeImage,
	"gif":  models.MediaTypeImage,
	"webp": models.MediaTypeImage,
	"mp4":  models.MediaTypeVideo,
	"webm": models.MediaTypeVideo,
	"ogg":  models.MediaTypeVideo,
}

// rejectedContent lists sniffed types that are never accepted whatever the
// extension claims. Children (docx under zip, x-executable under x-elf)
// are matched through their parents.
var rejectedContent = []string{
	"application/x-elf",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
	"application/zip",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/gzip",
	"application/x-tar",
	"application/x-bzip2",
	"application/x-xz",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is a list of validation failures returned as a single error
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validator checks pending uploads
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator instance. A non-positive size uses the default ceiling.
func NewValidator(maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{maxFileSize: maxFileSize}
}

// MaxFileSize returns the configured upload ceiling in bytes
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// Extension returns the lower-cased text after the last dot of filename
func Extension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ValidateFileType checks the extension allow-list, the declared content
// type and the sniffed content, returning the media type the file maps to.
func (v *Validator) ValidateFileType(filename, contentType string, data []byte) (models.MediaType, []ValidationError) {
	var errors []ValidationError

	ext := Extension(filename)
	mediaType, ok := allowedExtensions[ext]
	if !ok {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: "file type not allowed, must be one of: jpg, png, gif, webp, mp4, webm, ogg",
			Value:   filename,
		})
		return "", errors
	}

	if declared := declaredKind(contentType); declared != "" && declared != string(mediaType) {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("content type %s does not match .%s file", contentType, ext),
			Value:   contentType,
		})
	}

	if len(data) > 0 {
		detected := mimetype.Detect(data)
		for mt := detected; mt != nil; mt = mt.Parent() {
			if isRejected(mt) {
				errors = append(errors, ValidationError{
					Field:   "file",
					Message: "file content is an executable or archive",
					Value:   detected.String(),
				})
				break
			}
		}
	}

	if len(errors) > 0 {
		return "", errors
	}
	return mediaType, nil
}

// ValidateFileSize checks the upload ceiling
func (v *Validator) ValidateFileSize(size int64) []ValidationError {
	if size > v.maxFileSize {
		return []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("file too large, max size is %d MB", v.maxFileSize/(1024*1024)),
			Value:   size,
		}}
	}
	if size == 0 {
		return []ValidationError{{Field: "file", Message: "file is empty"}}
	}
	return nil
}

// ValidatePublishDate checks the strict YYYY-MM-DD pattern
func (v *Validator) ValidatePublishDate(date string) []ValidationError {
	if date == "" {
		return []ValidationError{{Field: "publish_date", Message: "publish_date is required"}}
	}
	if !models.IsValidDate(date) {
		return []ValidationError{{Field: "publish_date", Message: "invalid date format, expected YYYY-MM-DD", Value: date}}
	}
	return nil
}

// ValidateUpload runs every check for a pending submission and returns the
// media type and sanitized title. Any failure is returned as Errors.
func (v *Validator) ValidateUpload(req *models.UploadRequest) (models.MediaType, *string, error) {
	var errors Errors

	mediaType, typeErrs := v.ValidateFileType(req.Filename, req.ContentType, req.Data)
	errors = append(errors, typeErrs...)
	errors = append(errors, v.ValidateFileSize(int64(len(req.Data)))...)
	errors = append(errors, v.ValidatePublishDate(req.PublishDate)...)

	if len(errors) > 0 {
		return "", nil, errors
	}
	return mediaType, SanitizeTitle(req.Title), nil
}

// SanitizeTitle strips control characters, trims whitespace and truncates to
// MaxTitleLength characters. An empty result is nil, never "".
func SanitizeTitle(title string) *string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > models.MaxTitleLength {
		cleaned = strings.TrimRightFunc(string(runes[:models.MaxTitleLength]), unicode.IsSpace)
	}

	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// declaredKind returns "image" or "video" for a declared content type, or ""
// when the browser sent nothing useful.
func declaredKind(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return string(models.MediaTypeImage)
	case strings.HasPrefix(ct, "video/"):
		return string(models.MediaTypeVideo)
	case ct == "audio/ogg", ct == "application/ogg", ct == "audio/webm":
		return string(models.MediaTypeVideo)
	case ct == "", ct == "application/octet-stream":
		return ""
	default:
		return "other"
	}
}

func isRejected(mt *mimetype.MIME) bool {
	for _, r := range rejectedContent {
		if mt.Is(r) {
			return true
		}
	}
	return false
}
