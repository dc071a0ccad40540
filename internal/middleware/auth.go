package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/auth"
	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/respond"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the resolved principal on the context.
func WithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	if ctx == nil || principal == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext retrieves the resolved principal, or nil when the
// request was not authenticated.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	principal, _ := ctx.Value(principalKey).(*auth.Principal)
	return principal
}

// TokenVerifier validates a bearer credential and extracts its claims.
type TokenVerifier interface {
	Verify(credential string) (auth.Claims, error)
}

// PrincipalResolver maps a verified subject to the current identity record.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subjectID string) (auth.Principal, error)
}

// Authenticate returns middleware that extracts the bearer credential,
// verifies it, and resolves the current principal into the request context.
// A missing token on a protected endpoint is unauthenticated, not forbidden.
func Authenticate(verifier TokenVerifier, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			credential, ok := bearerToken(r)
			if !ok {
				respond.Error(ctx, w, r.URL.Path, apperrors.ErrUnauthenticated)
				return
			}

			claims, err := verifier.Verify(credential)
			if err != nil {
				respond.Error(ctx, w, r.URL.Path, apperrors.ErrUnauthenticated)
				return
			}

			// The claim set is a snapshot; only the subject is trusted.
			// Role and status always come from the fresh lookup.
			principal, err := resolver.Resolve(ctx, claims.Subject)
			if err != nil {
				respond.Error(ctx, w, r.URL.Path, err)
				return
			}

			logger := logging.FromContext(ctx).With(slog.String("user_id", principal.ID))
			ctx = logging.WithLogger(ctx, logger)
			ctx = WithPrincipal(ctx, &principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles returns middleware enforcing the endpoint's role requirement
// against the resolved principal. Must run after Authenticate.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if err := auth.Decide(principal, roles); err != nil {
				respond.Error(r.Context(), w, r.URL.Path, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
