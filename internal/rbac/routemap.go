package rbac

import "strings"

// Mode declares how a route's permission list combines.
type Mode string

const (
	// ModeAny grants access when the role holds at least one listed permission.
	ModeAny Mode = "any"
	// ModeAll grants access only when the role holds every listed permission.
	ModeAll Mode = "all"
)

// Requirement is the permission demand attached to a path prefix.
type Requirement struct {
	Permissions []Permission
	Mode        Mode
}

// Empty reports whether the requirement demands nothing.
func (req Requirement) Empty() bool {
	return len(req.Permissions) == 0
}

// Satisfied evaluates the requirement against a role. An empty requirement is
// always satisfied; this is the fail-open default for unmapped routes and the
// gate decides whether to tighten it.
func (req Requirement) Satisfied(role Role) bool {
	if req.Empty() {
		return true
	}
	if req.Mode == ModeAll {
		return HasAllPermissions(role, req.Permissions...)
	}
	return HasAnyPermission(role, req.Permissions...)
}

type routeRule struct {
	prefix string
	req    Requirement
}

// RouteMap resolves a request path to the permission requirement of the
// longest matching registered prefix. Matching respects path-segment
// boundaries: /orders matches /orders and /orders/5 but not /ordersx.
// Equal-length prefixes resolve to the first one registered.
type RouteMap struct {
	rules []routeRule
}

// NewRouteMap builds an empty map.
func NewRouteMap() *RouteMap {
	return &RouteMap{}
}

// Register attaches a requirement to a path prefix. Prefixes are normalized to
// a leading slash with no trailing slash; registering the same prefix again
// keeps the earlier rule.
func (m *RouteMap) Register(prefix string, mode Mode, perms ...Permission) *RouteMap {
	prefix = normalizePath(prefix)
	for _, rule := range m.rules {
		if rule.prefix == prefix {
			return m
		}
	}
	if mode != ModeAll {
		mode = ModeAny
	}
	m.rules = append(m.rules, routeRule{
		prefix: prefix,
		req:    Requirement{Permissions: append([]Permission(nil), perms...), Mode: mode},
	})
	return m
}

// Resolve returns the requirement for the longest registered prefix matching
// path. Paths with no matching prefix resolve to an empty requirement.
func (m *RouteMap) Resolve(path string) Requirement {
	path = normalizePath(path)
	best := Requirement{}
	bestLen := -1
	for _, rule := range m.rules {
		if !prefixMatches(path, rule.prefix) {
			continue
		}
		if len(rule.prefix) > bestLen {
			best = rule.req
			bestLen = len(rule.prefix)
		}
	}
	return best
}

// Prefixes returns the registered prefixes in registration order.
func (m *RouteMap) Prefixes() []string {
	out := make([]string, len(m.rules))
	for i, rule := range m.rules {
		out[i] = rule.prefix
	}
	return out
}

func prefixMatches(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// DefaultRouteMap is the desk's page-level protection table.
func DefaultRouteMap() *RouteMap {
	m := NewRouteMap()
	m.Register("/dashboard", ModeAny, PermViewDashboard)
	m.Register("/orders", ModeAny, PermViewOrder)
	m.Register("/orders/new", ModeAny, PermCreateOrder)
	m.Register("/trading", ModeAny, PermViewTrading)
	m.Register("/config", ModeAny, PermViewConfig)
	m.Register("/config/assets", ModeAll, PermViewConfig, PermImportAssets)
	m.Register("/config/clients", ModeAll, PermViewConfig, PermImportClients)
	m.Register("/admin", ModeAny, PermManageUsers)
	return m
}
