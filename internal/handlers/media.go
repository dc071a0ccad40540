package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/media"
	"github.com/mediavault/backend/internal/middleware"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/respond"
	"github.com/mediavault/backend/internal/upload"
)

// MediaHandler implements the media ingestion and CRUD endpoints.
type MediaHandler struct {
	Media    MediaIngestor
	Admitter *upload.Admitter
	// MaxUploadBytes caps the whole request body; per-category ceilings are
	// enforced by admission independently.
	MaxUploadBytes int64
	MaxUploadFiles int
}

type rejectedFile struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

type uploadResponse struct {
	Created  []models.Media `json:"created"`
	Rejected []rejectedFile `json:"rejected,omitempty"`
}

// Create handles POST /api/media: a multipart batch of files plus optional tags.
// Files are validated independently; the admitted subset is committed and the
// rejected files are reported alongside, so the caller sees every outcome.
func (h MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal := middleware.PrincipalFromContext(ctx)
	if principal == nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusUnauthorized, "Invalid or missing authentication token")
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusRequestEntityTooLarge, "Upload exceeds the maximum request size")
			return
		}
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "At least one file is required")
		return
	}
	if h.MaxUploadFiles > 0 && len(headers) > h.MaxUploadFiles {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Too many files in one upload")
		return
	}

	candidates := make([]upload.Candidate, len(headers))
	for i, header := range headers {
		candidate, err := candidateFromPart(header)
		if err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Unreadable file part")
			return
		}
		candidates[i] = candidate
	}

	results := h.Admitter.Admit(candidates)

	var (
		files    []media.File
		rejected []rejectedFile
	)
	for i, result := range results {
		if result.Err != nil {
			rejected = append(rejected, rejectedFile{
				FileName: result.Err.FileName,
				Message:  result.Err.Message,
			})
			continue
		}

		content, err := headers[i].Open()
		if err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Unreadable file part")
			return
		}
		defer content.Close()

		files = append(files, media.File{Admitted: *result.Admitted, Content: content})
	}

	tagIDs := tagIDsFromForm(r.MultipartForm.Value["tags"])

	var created []models.Media
	if len(files) > 0 {
		var err error
		created, err = h.Media.Commit(ctx, principal.ID, files, tagIDs)
		if err != nil {
			logger.Error("media commit failed", "created", len(created), "error", err)
			respond.Error(ctx, w, r.URL.Path, err)
			return
		}
	}

	if len(created) == 0 {
		details := make([]respond.ErrorDetail, len(rejected))
		for i, rej := range rejected {
			details[i] = respond.ErrorDetail{Message: rej.FileName + ": " + rej.Message}
		}
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "No files were accepted", details...)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusCreated, "Media files uploaded successfully", uploadResponse{
		Created:  created,
		Rejected: rejected,
	})
}

// List handles GET /api/media.
func (h MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Media.List(ctx)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, err)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Media files retrieved successfully", records)
}

// Get handles GET /api/media/{id}; the view counter advances by exactly one
// per successful read.
func (h MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	record, err := h.Media.Get(ctx, id)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, err)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Media file retrieved successfully", record)
}

// Update handles PATCH /api/media/{id}: an optional replacement file plus an
// optional new tag set.
func (h MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var replacement *media.File
	if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
		candidate, err := candidateFromPart(headers[0])
		if err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Unreadable file part")
			return
		}

		result := h.Admitter.Admit([]upload.Candidate{candidate})[0]
		if result.Err != nil {
			respond.Error(ctx, w, r.URL.Path, result.Err)
			return
		}

		content, err := headers[0].Open()
		if err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Unreadable file part")
			return
		}
		defer content.Close()

		replacement = &media.File{Admitted: *result.Admitted, Content: content}
	}

	var tagIDs []string
	if values, ok := r.MultipartForm.Value["tags"]; ok {
		tagIDs = tagIDsFromForm(values)
		if tagIDs == nil {
			tagIDs = []string{}
		}
	}

	record, err := h.Media.Update(ctx, id, replacement, tagIDs)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, err)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Media file updated successfully", record)
}

// Delete handles DELETE /api/media/{id}.
func (h MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Media.Remove(ctx, id); err != nil {
		respond.Error(ctx, w, r.URL.Path, err)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Media file deleted successfully", nil)
}

// candidateFromPart builds an admission candidate from a multipart file part,
// sniffing the leading bytes so admission can cross-check the declared type.
func candidateFromPart(header *multipart.FileHeader) (upload.Candidate, error) {
	file, err := header.Open()
	if err != nil {
		return upload.Candidate{}, err
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return upload.Candidate{}, err
	}

	sniffed := ""
	if n > 0 {
		sniffed = http.DetectContentType(buf[:n])
	}

	return upload.Candidate{
		OriginalName: header.Filename,
		DeclaredMIME: header.Header.Get("Content-Type"),
		Size:         header.Size,
		SniffedMIME:  sniffed,
	}, nil
}

// tagIDsFromForm accepts repeated tags fields as well as comma-separated values.
func tagIDsFromForm(values []string) []string {
	var ids []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
	}
	return ids
}
