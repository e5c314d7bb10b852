// Package access decides where a signed-in user lands, which portals they
// see, and which routes they may open. Every function is pure: callers pass
// a fresh user snapshot and membership list on each request.
package access

// User is the identity snapshot the resolver needs. A nil *User means the
// request is unauthenticated.
type User struct {
	ID            string
	PlatformRole  PlatformRole
	Status        AccountStatus
	EmailVerified bool
}

func (u *User) active() bool {
	return u != nil && u.Status == StatusActive
}

// Membership is one staff seat together with the status of its partner.
type Membership struct {
	PartnerID     string
	PartnerStatus PartnerStatus
	StaffRole     StaffRole
	Status        MembershipStatus
	Permissions   Permissions
}

// Eligible keeps the seats that may influence a decision: membership active,
// partner organization active, staff role known. The input is not modified.
func Eligible(memberships []Membership) []Membership {
	out := make([]Membership, 0, len(memberships))
	for _, m := range memberships {
		if m.Status != MembershipActive || m.PartnerStatus != PartnerActive || !m.StaffRole.known() {
			continue
		}
		out = append(out, m)
	}
	return out
}

type seats struct {
	owner bool
	staff bool
}

func summarize(memberships []Membership) seats {
	var s seats
	for _, m := range Eligible(memberships) {
		if m.StaffRole == StaffOwner {
			s.owner = true
		} else {
			s.staff = true
		}
	}
	return s
}

func (s seats) any() bool { return s.owner || s.staff }

// ResolveHomeRoute picks the single dashboard a user lands on. Platform
// privilege outranks partner affiliation, and an owner seat anywhere
// outranks staff seats elsewhere.
func ResolveHomeRoute(u *User, memberships []Membership) Route {
	if u == nil {
		return HomeUser
	}
	if u.PlatformRole.IsAdmin() {
		return HomeAdmin
	}
	if u.PlatformRole == RoleStaff {
		return HomeAdmin
	}
	s := summarize(memberships)
	switch {
	case s.owner:
		return HomePartnerOwner
	case s.any():
		return HomePartnerStaff
	default:
		return HomeUser
	}
}

// Portals lists the top-level areas visible to a user. Several flags may be
// true at once.
type Portals struct {
	Public       bool `json:"public"`
	User         bool `json:"user"`
	PartnerOwner bool `json:"partner_owner"`
	PartnerStaff bool `json:"partner_staff"`
	Admin        bool `json:"admin"`
}

// PortalVisibility computes the portal flags. Platform staff do not get the
// admin flag even though they share the admin dashboard.
func PortalVisibility(u *User, memberships []Membership) Portals {
	p := Portals{Public: true}
	if u == nil {
		return p
	}
	s := summarize(memberships)
	p.User = true
	p.Admin = u.PlatformRole.IsAdmin()
	p.PartnerOwner = s.owner
	p.PartnerStaff = s.staff
	return p
}

// DenyReason says why a route was refused.
type DenyReason string

const (
	ReasonUnauthenticated     DenyReason = "unauthenticated"
	ReasonAccountNotActive    DenyReason = "account-not-active"
	ReasonEmailNotVerified    DenyReason = "email-not-verified"
	ReasonInsufficientRole    DenyReason = "insufficient-platform-role"
	ReasonNoPartnerMembership DenyReason = "no-partner-membership"
	ReasonNotPartnerOwner     DenyReason = "not-partner-owner"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// AccessDecision bundles the three answers for one request.
type AccessDecision struct {
	Home          Route      `json:"home"`
	HomePath      string     `json:"home_path"`
	Portals       Portals    `json:"portals"`
	Class         RouteClass `json:"route_class"`
	Authorization Decision   `json:"authorization"`
}

// Resolver binds the route table and dashboard paths. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	table  RouteTable
	routes Routes
}

func NewResolver(table RouteTable, routes Routes) *Resolver {
	return &Resolver{table: table, routes: routes}
}

// Classify returns the rule covering path.
func (r *Resolver) Classify(path string) RouteRule {
	return r.table.Match(path)
}

// HomePath resolves the home route and returns its URL path.
func (r *Resolver) HomePath(u *User, memberships []Membership) string {
	return r.routes.Path(ResolveHomeRoute(u, memberships))
}

// Authorize checks path for u. When several conditions fail, the reason
// reported follows unauthenticated, account-not-active, email-not-verified,
// then role and membership reasons.
func (r *Resolver) Authorize(u *User, memberships []Membership, path string) Decision {
	return Check(r.table.Match(path), u, memberships)
}

// Check evaluates a single rule. Guards that protect a fixed surface, such as
// an API group, call it directly instead of matching a path.
func Check(rule RouteRule, u *User, memberships []Membership) Decision {
	if rule.Class == ClassPublic {
		return Allow()
	}
	if u == nil {
		return Deny(ReasonUnauthenticated)
	}
	if !u.active() {
		return Deny(ReasonAccountNotActive)
	}
	if rule.RequireVerifiedEmail && !u.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}

	switch rule.Class {
	case ClassAuthenticated:
		return Allow()
	case ClassAdmin:
		if u.PlatformRole.UsesAdminSurface() {
			return Allow()
		}
		return Deny(ReasonInsufficientRole)
	case ClassPartnerOwner:
		s := summarize(memberships)
		if !s.any() {
			return Deny(ReasonNoPartnerMembership)
		}
		if !s.owner {
			return Deny(ReasonNotPartnerOwner)
		}
		return Allow()
	case ClassPartnerStaffOrOwner:
		if !summarize(memberships).any() {
			return Deny(ReasonNoPartnerMembership)
		}
		return Allow()
	default:
		// A class this switch does not know is never granted.
		return Deny(ReasonInsufficientRole)
	}
}

// Decide answers all three questions for one request.
func (r *Resolver) Decide(u *User, memberships []Membership, path string) AccessDecision {
	rule := r.table.Match(path)
	home := ResolveHomeRoute(u, memberships)
	return AccessDecision{
		Home:          home,
		HomePath:      r.routes.Path(home),
		Portals:       PortalVisibility(u, memberships),
		Class:         rule.Class,
		Authorization: Check(rule, u, memberships),
	}
}
