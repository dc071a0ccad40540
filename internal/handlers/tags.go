package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/respond"
)

// TagHandler implements the tag CRUD endpoints.
type TagHandler struct {
	Tags    TagStore
	NowFunc func() time.Time
}

type tagRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/tags. Admin only.
func (h TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Tag name is required")
		return
	}

	now := h.now()
	tag := models.Tag{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Tag with this name already exists")
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("create tag", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusCreated, "Tag created successfully", tag)
}

// List handles GET /api/tags.
func (h TagHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tags, err := h.Tags.List(ctx)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("list tags", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Tags retrieved successfully", tags)
}

// Get handles GET /api/tags/{id}.
func (h TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	tag, err := h.Tags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("Tag", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("read tag", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Tag retrieved successfully", tag)
}

// Update handles PATCH /api/tags/{id}. Admin only.
func (h TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Tag name is required")
		return
	}

	tag, err := h.Tags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("Tag", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("read tag", err))
		return
	}

	tag.Name = req.Name
	tag.UpdatedAt = h.now()

	if err := h.Tags.Update(ctx, tag); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Tag with this name already exists")
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("update tag", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Tag updated successfully", tag)
}

// Delete handles DELETE /api/tags/{id}. Admin only.
func (h TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Tags.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("Tag", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("delete tag", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Tag deleted successfully", nil)
}

func (h TagHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
