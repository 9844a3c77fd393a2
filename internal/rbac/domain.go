// Package rbac holds the desk's role and permission model: a closed set of
// roles, a closed set of permissions, and a static grant table fixed at build
// time. Role assignment lives in the user profile store; what a role is
// allowed to do lives here and nowhere else.
package rbac

import (
	"fmt"
	"strings"
)

// Role is a named category of user. The set is closed; new roles are a code
// change, not a data change.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleComercial   Role = "comercial"
	RoleOperador    Role = "operador"
	RoleControlador Role = "controlador"
)

// Permission is a single named capability gate.
type Permission string

const (
	PermViewDashboard Permission = "view_dashboard"
	PermViewOrder     Permission = "view_order"
	PermCreateOrder   Permission = "create_order"
	PermEditOrder     Permission = "edit_order"
	PermDeleteOrder   Permission = "delete_order"
	PermExecuteOrder  Permission = "execute_order"
	PermViewTrading   Permission = "view_trading"
	PermViewConfig    Permission = "view_config"
	PermImportClients Permission = "import_clients"
	PermImportAssets  Permission = "import_assets"
	PermManageUsers   Permission = "manage_users"
)

// Roles lists every recognized role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleComercial, RoleOperador, RoleControlador}
}

// Permissions lists every recognized permission.
func Permissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermViewOrder,
		PermCreateOrder,
		PermEditOrder,
		PermDeleteOrder,
		PermExecuteOrder,
		PermViewTrading,
		PermViewConfig,
		PermImportClients,
		PermImportAssets,
		PermManageUsers,
	}
}

// grants is the authoritative role-to-permission table. Membership is what
// matters; order is irrelevant.
var grants = map[Role]map[Permission]struct{}{
	RoleComercial: permSet(
		PermViewDashboard,
		PermViewOrder,
		PermCreateOrder,
		PermEditOrder,
		PermViewConfig,
		PermImportClients,
	),
	RoleOperador: permSet(
		PermViewOrder,
		PermExecuteOrder,
		PermViewTrading,
		PermViewConfig,
		PermImportAssets,
	),
	RoleControlador: permSet(
		PermViewDashboard,
		PermViewOrder,
		PermViewTrading,
		PermViewConfig,
	),
	RoleAdmin: permSet(Permissions()...),
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// GrantsFor returns the permissions granted to a role in canonical order.
// Unknown roles get an empty slice, matching a recognized role with no grants.
func GrantsFor(role Role) []Permission {
	set, ok := grants[role]
	if !ok {
		return []Permission{}
	}
	perms := make([]Permission, 0, len(set))
	for _, p := range Permissions() {
		if _, granted := set[p]; granted {
			perms = append(perms, p)
		}
	}
	return perms
}

// roleAliases maps legacy serializations seen in stored profiles onto the
// canonical role strings. Accepted only at the parse boundary.
var roleAliases = map[string]Role{
	"trader": RoleOperador,
}

// ParseRole validates a stored role string into a Role. Comparison is
// case-insensitive and trims whitespace; legacy aliases fold onto their
// canonical role. Anything else is rejected so an inconsistent profile row
// never carries permissions.
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("rbac: empty role")
	}
	role := Role(normalized)
	if _, ok := grants[role]; ok {
		return role, nil
	}
	if canonical, ok := roleAliases[normalized]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("rbac: unknown role %q", raw)
}

// Valid reports whether the role is one of the recognized roles.
func (r Role) Valid() bool {
	_, ok := grants[r]
	return ok
}

func (r Role) String() string { return string(r) }

func (p Permission) String() string { return string(p) }
