package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
)

var testUser = models.User{
	ID:     "user-1",
	Name:   "Test User",
	Email:  "test@example.com",
	Status: models.StatusActive,
	Role:   models.RoleUser,
}

func TestTokenManagerIssueAndVerify(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour, 0)

	token, expiresAt, err := manager.Issue(testUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected a future expiry, got %s", expiresAt)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Subject != testUser.ID {
		t.Fatalf("expected subject %q got %q", testUser.ID, claims.Subject)
	}
	if claims.Email != testUser.Email {
		t.Fatalf("expected email %q got %q", testUser.Email, claims.Email)
	}
}

func TestTokenManagerVerifyExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	manager := NewTokenManager([]byte("test-secret"), time.Hour, 0)
	manager.WithNowFunc(func() time.Time { return issuedAt })

	token, _, err := manager.Issue(testUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	manager.WithNowFunc(time.Now)

	if _, err := manager.Verify(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestTokenManagerVerifyWrongSignature(t *testing.T) {
	issuer := NewTokenManager([]byte("issuer-secret"), time.Hour, 0)
	verifier := NewTokenManager([]byte("other-secret"), time.Hour, 0)

	token, _, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for wrong signature, got %v", err)
	}
}

func TestTokenManagerVerifyMalformed(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour, 0)

	for _, credential := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.Verify(credential); !errors.Is(err, apperrors.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated for %q, got %v", credential, err)
		}
	}
}

func TestTokenManagerVerifyMissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	manager := NewTokenManager(secret, time.Hour, 0)

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for missing subject, got %v", err)
	}
}

func TestTokenManagerVerifyRejectsUnsignedToken(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour, 0)

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for alg=none token, got %v", err)
	}
}

func TestTokenManagerVerifyLeeway(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour - 10*time.Second)
	manager := NewTokenManager([]byte("test-secret"), time.Hour, 30*time.Second)
	manager.WithNowFunc(func() time.Time { return issuedAt })

	token, _, err := manager.Issue(testUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	manager.WithNowFunc(time.Now)

	// Expired 10s ago but within the 30s leeway.
	if _, err := manager.Verify(token); err != nil {
		t.Fatalf("expected token within leeway to verify, got %v", err)
	}
}
