// Package auth implements the request authentication gate: signed bearer
// tokens, fresh principal resolution, and the role-based access decision.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
)

// Claims is the payload embedded in issued bearer tokens. Everything except
// the subject is a snapshot taken at issue time; authorization decisions must
// use the freshly resolved principal, never these cached fields.
type Claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

// TokenManager issues and verifies HS256-signed bearer tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	leeway  time.Duration
	nowFunc func() time.Time
}

// NewTokenManager constructs a TokenManager signing with the provided secret.
func NewTokenManager(secret []byte, ttl, leeway time.Duration) *TokenManager {
	if len(secret) == 0 {
		panic("auth: signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: secret, ttl: ttl, leeway: leeway}
}

// WithNowFunc overrides the time source. Useful for tests.
func (m *TokenManager) WithNowFunc(now func() time.Time) *TokenManager {
	m.nowFunc = now
	return m
}

func (m *TokenManager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now().UTC()
}

// Issue creates a signed token for the provided user, expiring after the
// configured TTL.
func (m *TokenManager) Issue(user models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:  user.Email,
		Name:   user.Name,
		Status: string(user.Status),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify validates the signature and expiry of a bearer credential and
// extracts its claim set. Absent, malformed, badly signed, or expired
// credentials all fail with apperrors.ErrUnauthenticated.
func (m *TokenManager) Verify(credential string) (Claims, error) {
	if credential == "" {
		return Claims{}, apperrors.ErrUnauthenticated
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(credential, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, apperrors.ErrUnauthenticated
	}

	if claims.Subject == "" {
		return Claims{}, apperrors.ErrUnauthenticated
	}

	return claims, nil
}

func (m *TokenManager) keyFunc(*jwt.Token) (any, error) {
	return m.secret, nil
}
