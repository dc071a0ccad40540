package auth

import (
	"fmt"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
)

// Decide reports whether the principal satisfies the endpoint's role
// requirement. It is a pure function: no I/O, same inputs always yield the
// same outcome. The four distinct failure reasons are preserved so callers can
// diagnose exactly which rule rejected the request.
//
// Rules, in order:
//  1. An empty requirement allows any caller.
//  2. A missing principal is rejected.
//  3. A principal without a role is rejected.
//  4. A principal whose role is in the requirement is allowed.
//  5. Everything else is rejected naming the insufficient role.
func Decide(principal *Principal, requirement []models.Role) error {
	if len(requirement) == 0 {
		return nil
	}

	if principal == nil {
		return apperrors.Forbidden("user not authenticated")
	}

	if principal.Role == "" {
		return apperrors.Forbidden("user role not found")
	}

	for _, role := range requirement {
		if principal.Role == role {
			return nil
		}
	}

	return apperrors.Forbidden(fmt.Sprintf("role %s does not have permission to access this resource", principal.Role))
}
