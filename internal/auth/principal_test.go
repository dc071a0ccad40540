package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
)

type stubUserDirectory struct {
	users map[string]models.User
	err   error
}

func (s *stubUserDirectory) FindByID(_ context.Context, id string) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func TestResolverResolve(t *testing.T) {
	directory := &stubUserDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "test@example.com", Role: models.RoleAdmin, Status: models.StatusActive},
	}}
	resolver := NewResolver(directory)

	principal, err := resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.ID != "user-1" || principal.Role != models.RoleAdmin {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestResolverResolveDeletedUser(t *testing.T) {
	resolver := NewResolver(&stubUserDirectory{users: map[string]models.User{}})

	if _, err := resolver.Resolve(context.Background(), "gone"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestResolverResolveEmptySubject(t *testing.T) {
	resolver := NewResolver(&stubUserDirectory{users: map[string]models.User{}})

	if _, err := resolver.Resolve(context.Background(), ""); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty subject, got %v", err)
	}
}

func TestResolverResolveStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	resolver := NewResolver(&stubUserDirectory{err: storeErr})

	_, err := resolver.Resolve(context.Background(), "user-1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatal("store failures must not masquerade as unauthenticated")
	}
}

func TestResolverReflectsRoleChange(t *testing.T) {
	directory := &stubUserDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Role: models.RoleAdmin},
	}}
	resolver := NewResolver(directory)

	principal, err := resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Role != models.RoleAdmin {
		t.Fatalf("expected admin, got %q", principal.Role)
	}

	// Downgrade the backing record; the next resolve must see the new role.
	directory.users["user-1"] = models.User{ID: "user-1", Role: models.RoleUser}

	principal, err = resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("resolve after downgrade: %v", err)
	}
	if principal.Role != models.RoleUser {
		t.Fatalf("expected downgraded role to take effect, got %q", principal.Role)
	}
}
