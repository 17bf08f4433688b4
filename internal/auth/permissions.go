package auth

// Permission is a named capability.
type Permission string

const (
	PermCameraRead  Permission = "camera:read"
	PermCameraWrite Permission = "camera:write"
	PermHistoryRead Permission = "history:read"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {PermCameraRead, PermHistoryRead},
	RoleAdmin:  {PermCameraRead, PermCameraWrite, PermHistoryRead},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role,
// or nil for an unknown role.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
