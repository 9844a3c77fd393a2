package rbac

import "testing"

func TestParseRoleCanonical(t *testing.T) {
	cases := map[string]Role{
		"admin":       RoleAdmin,
		"comercial":   RoleComercial,
		"operador":    RoleOperador,
		"controlador": RoleControlador,
		"  Admin  ":   RoleAdmin,
		"OPERADOR":    RoleOperador,
	}
	for raw, want := range cases {
		got, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseRoleLegacyAlias(t *testing.T) {
	got, err := ParseRole("trader")
	if err != nil {
		t.Fatalf("ParseRole(trader): %v", err)
	}
	if got != RoleOperador {
		t.Fatalf("trader should fold to operador, got %q", got)
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "  ", "cliente", "superadmin", "admin2"} {
		if _, err := ParseRole(raw); err == nil {
			t.Fatalf("ParseRole(%q) should fail", raw)
		}
	}
}

func TestEveryRoleHasGrants(t *testing.T) {
	for _, role := range Roles() {
		perms := GrantsFor(role)
		if perms == nil {
			t.Fatalf("GrantsFor(%q) returned nil", role)
		}
		if len(perms) == 0 {
			t.Fatalf("role %q has no permissions", role)
		}
	}
}

func TestUnknownRoleHasEmptyGrants(t *testing.T) {
	perms := GrantsFor(Role("ghost"))
	if perms == nil || len(perms) != 0 {
		t.Fatalf("unknown role should resolve to empty grants, got %v", perms)
	}
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	for _, perm := range Permissions() {
		if !HasPermission(RoleAdmin, perm) {
			t.Fatalf("admin missing %q", perm)
		}
	}
}

func TestGrantTable(t *testing.T) {
	expect := map[Role][]Permission{
		RoleComercial: {
			PermViewDashboard, PermViewOrder, PermCreateOrder,
			PermEditOrder, PermViewConfig, PermImportClients,
		},
		RoleOperador: {
			PermViewOrder, PermExecuteOrder, PermViewTrading,
			PermViewConfig, PermImportAssets,
		},
		RoleControlador: {
			PermViewDashboard, PermViewOrder, PermViewTrading, PermViewConfig,
		},
	}
	for role, wanted := range expect {
		wantSet := make(map[Permission]struct{}, len(wanted))
		for _, p := range wanted {
			wantSet[p] = struct{}{}
		}
		for _, perm := range Permissions() {
			_, want := wantSet[perm]
			if got := HasPermission(role, perm); got != want {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", role, perm, got, want)
			}
		}
	}
}
