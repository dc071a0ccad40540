package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/respond"
	"github.com/mediavault/backend/internal/storage"
)

// UserHandler implements the user CRUD endpoints.
type UserHandler struct {
	Users   UserStore
	Media   MediaIngestor
	Images  ProfileImageStorage
	NowFunc func() time.Time
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	ProfileImage *string `json:"profileImage"`
}

// Create handles POST /api/users: signup with an optional multipart profile image.
func (h UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	req, profileImagePath, ok := h.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "User with this email already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("verify existing accounts", err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respond.Fail(ctx, w, r.URL.Path, http.StatusInternalServerError, "Failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Password:     string(hashed),
		Status:       models.StatusActive,
		Role:         models.RoleUser,
		ProfileImage: profileImagePath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "User with this email already exists")
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("create user", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusCreated, "User created successfully", user)
}

// decodeCreateRequest accepts either a JSON body or a multipart form carrying
// an optional profileImage file part.
func (h UserHandler) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (createUserRequest, string, bool) {
	ctx := r.Context()

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid request body")
			return createUserRequest{}, "", false
		}
		return req, "", true
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid multipart form")
		return createUserRequest{}, "", false
	}

	req := createUserRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	file, header, err := r.FormFile("profileImage")
	if errors.Is(err, http.ErrMissingFile) {
		return req, "", true
	}
	if err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid profile image")
		return createUserRequest{}, "", false
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Profile image must be an image file")
		return createUserRequest{}, "", false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	key := path.Join(storage.ImagePrefix, fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	location, err := h.Images.Save(ctx, key, file)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("store profile image", err))
		return createUserRequest{}, "", false
	}

	return req, location, true
}

// List handles GET /api/users.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.Users.List(ctx)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("list users", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Users retrieved successfully", users)
}

// Get handles GET /api/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("User", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("read user", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "User retrieved successfully", user)
}

// Update handles PATCH /api/users/{id}.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("User", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("read user", err))
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid email address")
			return
		}
		user.Email = email
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			respond.Fail(ctx, w, r.URL.Path, http.StatusInternalServerError, "Failed to secure password")
			return
		}
		user.Password = string(hashed)
	}
	if req.ProfileImage != nil {
		user.ProfileImage = normalizeProfileImagePath(*req.ProfileImage)
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "User with this email already exists")
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("update user", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "User updated successfully", user)
}

// Delete handles DELETE /api/users/{id}. Owned media records are removed by
// the store's cascade rule.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("User", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("delete user", err))
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "User deleted successfully", nil)
}

// GetMedia handles GET /api/users/{id}/media.
func (h UserHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, r.URL.Path, apperrors.NotFound("User", id))
			return
		}
		respond.Error(ctx, w, r.URL.Path, apperrors.Persistence("read user", err))
		return
	}

	records, err := h.Media.ListByOwner(ctx, id)
	if err != nil {
		respond.Error(ctx, w, r.URL.Path, err)
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "User media files retrieved successfully", records)
}

// normalizeProfileImagePath reduces an absolute URL to the relative
// public/uploads path stored on the record.
func normalizeProfileImagePath(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "public/uploads/"); idx != -1 {
		return value[idx:]
	}
	return value
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
