package auth

import "pixgate/internal/model"

// BackofficeRoles is the only set of roles allowed past the backoffice gate.
var BackofficeRoles = []model.Role{model.RoleAdmin, model.RoleSuperAdmin, model.RoleOwner}

// Authorize is a membership test against the closed role set.
func Authorize(identity *Identity, allowed ...model.Role) bool {
	if identity == nil {
		return false
	}
	for _, role := range allowed {
		if identity.Role == role {
			return true
		}
	}
	return false
}
