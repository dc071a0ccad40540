package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/respond"
)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users   UserStore
	Tokens  TokenIssuer
	Limiter RateLimiter
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Login handles POST /api/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "remoteAddr", r.RemoteAddr)
		respond.Fail(ctx, w, r.URL.Path, http.StatusTooManyRequests, "Too many login attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "email", req.Email, "error", err)
		}
		respond.Fail(ctx, w, r.URL.Path, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respond.Fail(ctx, w, r.URL.Path, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, _, err := h.Tokens.Issue(user)
	if err != nil {
		logger.Error("failed to issue token", "error", err, "userId", user.ID)
		respond.Fail(ctx, w, r.URL.Path, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respond.Success(ctx, w, r.URL.Path, http.StatusOK, "Login successful", loginResponse{
		User:        user,
		AccessToken: token,
	})
}
