package domain

// roleHierarchy maps each role to the set of roles it subsumes. It is built
// once at package init and never mutated afterwards.
var roleHierarchy = map[Role][]Role{
	RoleSuperAdmin: {RoleSuperAdmin, RoleAdmin, RoleSeller},
	RoleAdmin:      {RoleAdmin, RoleSeller},
	RoleSeller:     {RoleSeller},
}

// RoleSubsumes reports whether holder covers required according to the role
// hierarchy (super_admin > admin > seller).
func RoleSubsumes(holder, required Role) bool {
	for _, r := range roleHierarchy[holder] {
		if r == required {
			return true
		}
	}
	return false
}

// ValidRole reports whether r is a recognised role value.
func ValidRole(r Role) bool {
	_, ok := roleHierarchy[r]
	return ok
}
