package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
)

// Principal is the resolved, current identity backing a request. The role is
// always read from the identity store, never from the token's claim snapshot,
// so a downgraded or suspended account loses access as soon as the backing
// record changes.
type Principal struct {
	ID     string
	Email  string
	Role   models.Role
	Status models.Status
}

// UserDirectory is the identity lookup required to resolve principals.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Resolver maps verified token subjects to current identity records.
type Resolver struct {
	users UserDirectory
}

// NewResolver constructs a Resolver backed by the provided directory.
func NewResolver(users UserDirectory) *Resolver {
	if users == nil {
		panic("auth: user directory must not be nil")
	}
	return &Resolver{users: users}
}

// Resolve performs a fresh lookup of the identity record for the subject. A
// subject whose record no longer exists fails unauthenticated: previously
// issued tokens must not outlive their account.
func (r *Resolver) Resolve(ctx context.Context, subjectID string) (Principal, error) {
	if subjectID == "" {
		return Principal{}, apperrors.ErrUnauthenticated
	}

	user, err := r.users.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Principal{}, apperrors.ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("resolve principal %s: %w", subjectID, err)
	}

	return Principal{
		ID:     user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	}, nil
}
