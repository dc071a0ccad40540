// Package upload validates batches of incoming file candidates before any
// byte reaches storage or any record reaches the database.
package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
)

const (
	// MiB is one mebibyte in bytes.
	MiB = 1024 * 1024
	// VideoMaxSize is the size ceiling for video uploads.
	VideoMaxSize int64 = 50 * MiB
	// DefaultMaxSize is the size ceiling for every non-video category.
	DefaultMaxSize int64 = 5 * MiB
)

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"mp4":  {},
	"mov":  {},
	"avi":  {},
	"mkv":  {},
	"pdf":  {},
}

// Candidate describes one file in an incoming batch. It exists only for the
// duration of admission and is never persisted.
type Candidate struct {
	OriginalName string
	DeclaredMIME string
	Size         int64
	// SniffedMIME is the content type detected from the leading bytes of the
	// payload. Empty when the caller did not sniff.
	SniffedMIME string
	// TempPath points at the spooled upload on disk, if any.
	TempPath string
}

// Admitted is a candidate that passed every admission check, annotated with
// the derived category and normalized extension.
type Admitted struct {
	Candidate
	Category  models.MediaType
	Extension string
}

// Result is the per-candidate admission outcome. Exactly one of Admitted and
// Err is set; the caller decides whether the batch fails fast or accepts the
// admitted subset.
type Result struct {
	Admitted *Admitted
	Err      *apperrors.ValidationError
}

// Admitter validates candidates against category, extension, and size rules.
type Admitter struct {
	verifyContent bool
}

// NewAdmitter constructs an Admitter. When verifyContent is set, candidates
// whose sniffed content type contradicts their declared category are rejected.
func NewAdmitter(verifyContent bool) *Admitter {
	return &Admitter{verifyContent: verifyContent}
}

// Admit evaluates each candidate independently. Check order is fixed so
// failures are deterministic: category derivation, then extension, then size.
// The first failing check wins; reasons are never aggregated per candidate.
func (a *Admitter) Admit(candidates []Candidate) []Result {
	results := make([]Result, len(candidates))
	for i, candidate := range candidates {
		results[i] = a.admitOne(candidate)
	}
	return results
}

func (a *Admitter) admitOne(c Candidate) Result {
	category, ok := CategoryOf(c.DeclaredMIME)
	if !ok {
		return rejected(&apperrors.ValidationError{
			Kind:     apperrors.UnsupportedType,
			FileName: c.OriginalName,
			Message:  "Unsupported file type",
		})
	}

	if a.verifyContent && c.SniffedMIME != "" {
		if sniffed, ok := CategoryOf(c.SniffedMIME); !ok || sniffed != category {
			return rejected(&apperrors.ValidationError{
				Kind:     apperrors.UnsupportedType,
				FileName: c.OriginalName,
				Message:  fmt.Sprintf("File content does not match declared type %s", c.DeclaredMIME),
			})
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(c.OriginalName), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return rejected(&apperrors.ValidationError{
			Kind:     apperrors.UnsupportedExtension,
			FileName: c.OriginalName,
			Message:  fmt.Sprintf("File extension .%s is not allowed", ext),
		})
	}

	limit := DefaultMaxSize
	if category == models.MediaTypeVideo {
		limit = VideoMaxSize
	}
	if c.Size > limit {
		return rejected(&apperrors.ValidationError{
			Kind:     apperrors.SizeExceeded,
			FileName: c.OriginalName,
			Message:  fmt.Sprintf("File size exceeds the maximum limit of %dMB", limit/MiB),
			Limit:    limit,
		})
	}

	return Result{Admitted: &Admitted{Candidate: c, Category: category, Extension: ext}}
}

func rejected(err *apperrors.ValidationError) Result {
	return Result{Err: err}
}

// CategoryOf derives the media category from a MIME type. Parameters such as
// charset are ignored.
func CategoryOf(mimeType string) (models.MediaType, bool) {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MediaTypeImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return models.MediaTypeVideo, true
	case mimeType == "application/pdf":
		return models.MediaTypePDF, true
	default:
		return "", false
	}
}
