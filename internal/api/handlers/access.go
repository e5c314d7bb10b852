package handlers

import (
	"net/http"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/identity"
)

// AccessHandler exposes the resolver so the front end gates navigation with
// the same decisions the server enforces.
type AccessHandler struct {
	resolver *access.Resolver
	targets  access.RedirectTargets
}

func NewAccessHandler(resolver *access.Resolver, targets access.RedirectTargets) *AccessHandler {
	return &AccessHandler{resolver: resolver, targets: targets}
}

type accessUser struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	PlatformRole  access.PlatformRole  `json:"platform_role"`
	Status        access.AccountStatus `json:"status"`
	EmailVerified bool                 `json:"email_verified"`
}

type accessSeat struct {
	PartnerID   string             `json:"partner_id"`
	Role        access.StaffRole   `json:"role"`
	Permissions access.Permissions `json:"permissions"`
}

// Me returns the caller's home route, portals and the decision for ?path=
// (the home path when omitted).
func (h *AccessHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := identity.SubjectFromContext(r.Context())
	if s == nil || s.Access == nil {
		writeError(w, r, http.StatusUnauthorized, string(access.ReasonUnauthenticated))
		return
	}

	p := r.URL.Query().Get("path")
	if p == "" {
		p = h.resolver.HomePath(s.Access, s.Memberships)
	}

	seats := make([]accessSeat, 0, len(s.Memberships))
	for _, m := range s.Memberships {
		seats = append(seats, accessSeat{PartnerID: m.PartnerID, Role: m.StaffRole, Permissions: m.Permissions})
	}

	u := accessUser{
		ID:            s.Access.ID,
		PlatformRole:  s.Access.PlatformRole,
		Status:        s.Access.Status,
		EmailVerified: s.Access.EmailVerified,
	}
	if s.User != nil {
		u.Email = s.User.Email
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"user":     u,
		"seats":    seats,
		"decision": h.resolver.Decide(s.Access, s.Memberships, p),
	})
}

// Check answers whether the caller may open ?path= and where to go if not.
// Anonymous callers are answered too.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeError(w, r, http.StatusBadRequest, "path is required")
		return
	}

	u, ms := identity.AccessFromContext(r.Context())
	d := h.resolver.Authorize(u, ms, p)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"path":     p,
		"class":    h.resolver.Classify(p).Class,
		"allowed":  d.Allowed,
		"reason":   d.Reason,
		"redirect": h.targets.For(d, u, p),
	})
}

// Home redirects to the caller's dashboard, or to sign-in.
func (h *AccessHandler) Home(w http.ResponseWriter, r *http.Request) {
	u, ms := identity.AccessFromContext(r.Context())
	if u == nil {
		http.Redirect(w, r, h.targets.For(access.Deny(access.ReasonUnauthenticated), nil, r.URL.Path), http.StatusFound)
		return
	}
	http.Redirect(w, r, h.resolver.HomePath(u, ms), http.StatusFound)
}
