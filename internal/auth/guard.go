package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/identity"
)

// recordTimeout bounds how long a denial response waits on the audit trail.
const recordTimeout = 250 * time.Millisecond

// Denial describes a refused request by a signed-in user.
type Denial struct {
	UserID     string
	Method     string
	Path       string
	Reason     access.DenyReason
	RemoteAddr string
	RequestID  string
	At         time.Time
}

// DenialRecorder receives denials for the audit trail.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, d Denial) error
}

// Guard turns access decisions into HTTP responses. Every layer that gates
// routes goes through the same resolver.
type Guard struct {
	resolver *access.Resolver
	targets  access.RedirectTargets
	recorder DenialRecorder
}

func NewGuard(resolver *access.Resolver, targets access.RedirectTargets, recorder DenialRecorder) *Guard {
	return &Guard{resolver: resolver, targets: targets, recorder: recorder}
}

// Pages protects browser routes by path. Denied requests are redirected to
// the page matching the reason.
func (g *Guard) Pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ms := identity.AccessFromContext(r.Context())
		d := g.resolver.Authorize(u, ms, r.URL.Path)
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}
		g.record(r, u, d)
		http.Redirect(w, r, g.targets.For(d, u, r.URL.RequestURI()), http.StatusFound)
	})
}

// API protects a JSON surface that requires class. Denials answer 401 when
// unauthenticated and 403 otherwise.
func (g *Guard) API(class access.RouteClass) func(http.Handler) http.Handler {
	rule := access.RouteRule{Class: class, RequireVerifiedEmail: class != access.ClassPublic}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ms := identity.AccessFromContext(r.Context())
			d := access.Check(rule, u, ms)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			g.record(r, u, d)
			status := http.StatusForbidden
			if d.Reason == access.ReasonUnauthenticated {
				status = http.StatusUnauthorized
			}
			writeError(w, r, status, map[string]string{
				"error":    string(d.Reason),
				"redirect": g.targets.For(d, u, ""),
			})
		})
	}
}

// RequirePartnerPermission checks perm against the caller's seat in the
// partner named by the {partnerID} URL parameter.
func (g *Guard) RequirePartnerPermission(perm access.Permission) func(http.Handler) http.Handler {
	return g.partnerCheck(func(ms []access.Membership, partnerID string) bool {
		return access.HasPartnerPermission(ms, partnerID, perm)
	}, map[string]string{"error": "missing partner permission", "permission": string(perm)})
}

// RequirePartnerOwner admits only the owner of the {partnerID} partner.
// Owning a different organization does not count.
func (g *Guard) RequirePartnerOwner() func(http.Handler) http.Handler {
	return g.partnerCheck(access.IsPartnerOwner, map[string]string{"error": string(access.ReasonNotPartnerOwner)})
}

// RequirePartnerMember admits any eligible seat in the {partnerID} partner.
func (g *Guard) RequirePartnerMember() func(http.Handler) http.Handler {
	return g.partnerCheck(func(ms []access.Membership, partnerID string) bool {
		_, ok := access.PartnerSeat(ms, partnerID)
		return ok
	}, map[string]string{"error": string(access.ReasonNoPartnerMembership)})
}

func (g *Guard) partnerCheck(allowed func([]access.Membership, string) bool, denied map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ms := identity.AccessFromContext(r.Context())
			if u == nil {
				writeError(w, r, http.StatusUnauthorized, map[string]string{"error": string(access.ReasonUnauthenticated)})
				return
			}
			if !allowed(ms, chi.URLParam(r, "partnerID")) {
				writeError(w, r, http.StatusForbidden, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// record reports denials of signed-in users. Anonymous hits on protected
// pages are routine sign-in redirects and are not recorded.
func (g *Guard) record(r *http.Request, u *access.User, d access.Decision) {
	if g.recorder == nil || u == nil {
		return
	}
	denial := Denial{
		UserID:     u.ID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Reason:     d.Reason,
		RemoteAddr: r.RemoteAddr,
		RequestID:  chimiddleware.GetReqID(r.Context()),
		At:         time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(r.Context(), recordTimeout)
	defer cancel()
	if err := g.recorder.RecordDenial(ctx, denial); err != nil {
		slog.Warn("failed to record access denial", "user_id", u.ID, "path", denial.Path, "error", err)
	}
}
