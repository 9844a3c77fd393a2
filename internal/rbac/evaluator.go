package rbac

// HasPermission reports whether the role is granted the permission. Unknown
// roles have no grants, so the check fails closed.
func HasPermission(role Role, perm Permission) bool {
	set, ok := grants[role]
	if !ok {
		return false
	}
	_, granted := set[perm]
	return granted
}

// HasAnyPermission reports whether the role holds at least one of the listed
// permissions. An empty list denies: a caller that asks for "any of nothing"
// gets no access rather than a free pass.
func HasAnyPermission(role Role, perms ...Permission) bool {
	set, ok := grants[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if _, granted := set[p]; granted {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every listed permission.
// An empty list is vacuously true; unknown roles still fail closed.
func HasAllPermissions(role Role, perms ...Permission) bool {
	set, ok := grants[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if _, granted := set[p]; !granted {
			return false
		}
	}
	return true
}
