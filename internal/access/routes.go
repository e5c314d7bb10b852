package access

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Route is a canonical dashboard a user can land on.
type Route string

const (
	HomeAdmin        Route = "admin"
	HomePartnerOwner Route = "partner-owner"
	HomePartnerStaff Route = "partner-staff"
	HomeUser         Route = "user"
)

// Routes maps each home route to the URL path served for it.
type Routes struct {
	Admin        string
	PartnerOwner string
	PartnerStaff string
	User         string
}

func DefaultRoutes() Routes {
	return Routes{
		Admin:        "/admin/dashboard",
		PartnerOwner: "/partner/owner/dashboard",
		PartnerStaff: "/partner/staff/dashboard",
		User:         "/dashboard",
	}
}

// Path returns the URL path for r, falling back to the user dashboard.
func (rs Routes) Path(r Route) string {
	switch r {
	case HomeAdmin:
		return rs.Admin
	case HomePartnerOwner:
		return rs.PartnerOwner
	case HomePartnerStaff:
		return rs.PartnerStaff
	default:
		return rs.User
	}
}

// RouteClass is the capability a path requires.
type RouteClass string

const (
	ClassPublic              RouteClass = "public"
	ClassAuthenticated       RouteClass = "authenticated"
	ClassPartnerStaffOrOwner RouteClass = "partner-staff"
	ClassPartnerOwner        RouteClass = "partner-owner"
	ClassAdmin               RouteClass = "admin"
)

func ParseRouteClass(s string) (RouteClass, error) {
	switch normalize(s) {
	case "public":
		return ClassPublic, nil
	case "authenticated", "any-authenticated":
		return ClassAuthenticated, nil
	case "partner-staff", "partner-staff-or-owner":
		return ClassPartnerStaffOrOwner, nil
	case "partner-owner", "partner-owner-only":
		return ClassPartnerOwner, nil
	case "admin", "admin-only":
		return ClassAdmin, nil
	}
	return "", fmt.Errorf("unknown route class %q", s)
}

// RouteRule protects every path at or below Prefix.
type RouteRule struct {
	Prefix               string
	Class                RouteClass
	RequireVerifiedEmail bool
}

// RouteTable classifies request paths. The zero value treats every path as
// public.
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable normalises prefixes and orders rules longest first so the
// most specific rule wins.
func NewRouteTable(rules ...RouteRule) RouteTable {
	out := make([]RouteRule, 0, len(rules))
	for _, r := range rules {
		r.Prefix = cleanPath(r.Prefix)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Prefix) > len(out[j].Prefix)
	})
	return RouteTable{rules: out}
}

func DefaultRouteTable() RouteTable {
	return NewRouteTable(
		RouteRule{Prefix: "/admin", Class: ClassAdmin, RequireVerifiedEmail: true},
		RouteRule{Prefix: "/partner/owner", Class: ClassPartnerOwner, RequireVerifiedEmail: true},
		RouteRule{Prefix: "/partner", Class: ClassPartnerStaffOrOwner, RequireVerifiedEmail: true},
		RouteRule{Prefix: "/dashboard", Class: ClassAuthenticated, RequireVerifiedEmail: true},
		RouteRule{Prefix: "/account", Class: ClassAuthenticated, RequireVerifiedEmail: true},
		RouteRule{Prefix: "/settings", Class: ClassAuthenticated, RequireVerifiedEmail: true},
	)
}

// Rules returns a copy of the table in match order.
func (t RouteTable) Rules() []RouteRule {
	return append([]RouteRule(nil), t.rules...)
}

// Match returns the rule covering p. Unmatched paths get a public rule.
func (t RouteTable) Match(p string) RouteRule {
	p = cleanPath(p)
	for _, r := range t.rules {
		if r.Prefix == "/" || p == r.Prefix || strings.HasPrefix(p, r.Prefix+"/") {
			return r
		}
	}
	return RouteRule{Prefix: p, Class: ClassPublic}
}

// ParseRouteRules reads a comma separated list of prefix=class entries.
// A ":unverified" suffix on the class drops the verified-email requirement,
// e.g. "/admin=admin,/billing=authenticated:unverified".
func ParseRouteRules(s string) (RouteTable, error) {
	var rules []RouteRule
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, value, ok := strings.Cut(entry, "=")
		prefix = strings.TrimSpace(prefix)
		if !ok || !strings.HasPrefix(prefix, "/") {
			return RouteTable{}, fmt.Errorf("parse route rule %q: want /prefix=class", entry)
		}
		classStr, flag, _ := strings.Cut(strings.TrimSpace(value), ":")
		class, err := ParseRouteClass(classStr)
		if err != nil {
			return RouteTable{}, fmt.Errorf("parse route rule %q: %w", entry, err)
		}
		rule := RouteRule{Prefix: prefix, Class: class, RequireVerifiedEmail: class != ClassPublic}
		switch strings.TrimSpace(flag) {
		case "":
		case "unverified":
			rule.RequireVerifiedEmail = false
		default:
			return RouteTable{}, fmt.Errorf("parse route rule %q: unknown flag %q", entry, flag)
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return RouteTable{}, fmt.Errorf("parse route rules: no rules in %q", s)
	}
	return NewRouteTable(rules...), nil
}

func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
