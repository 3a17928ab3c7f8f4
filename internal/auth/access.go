package auth

import (
	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   models.Role
}

// RequireRole allows only callers holding exactly role.
func RequireRole(id Identity, role models.Role) error {
	if id.Role != role {
		return apperrors.Forbidden("only %ss can access this resource", role)
	}
	return nil
}

// CanViewPenalties allows the subject user and any moderator or administrator.
func CanViewPenalties(id Identity, targetUserID string) error {
	if id.UserID != "" && id.UserID == targetUserID {
		return nil
	}
	if id.Role == models.RoleModerator || id.Role == models.RoleAdministrator {
		return nil
	}
	return apperrors.Forbidden("not authorized to view these penalties")
}
