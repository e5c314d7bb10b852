package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/api/handlers"
	"github.com/alifh/alifh/internal/api/middleware"
	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/auth"
	"github.com/alifh/alifh/internal/cache"
	"github.com/alifh/alifh/internal/config"
	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/partner"
	"github.com/alifh/alifh/internal/queue"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	cache    *cache.Cache
	cfg      *config.Config
	recorder auth.DenialRecorder
}

// NewRouter wires the HTTP surface. qc may be nil, in which case denials are
// not recorded.
func NewRouter(db *pgxpool.Pool, c *cache.Cache, qc *queue.Client, cfg *config.Config) *Router {
	rt := &Router{
		mux:   chi.NewRouter(),
		db:    db,
		cache: c,
		cfg:   cfg,
	}
	if qc != nil {
		rt.recorder = qc
	}
	return rt
}

func (rt *Router) Setup() (http.Handler, error) {
	table, err := rt.cfg.RouteTable()
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}
	pages, err := rt.pagesHandler()
	if err != nil {
		return nil, err
	}

	resolver := access.NewResolver(table, rt.cfg.Access.Routes)
	targets := rt.cfg.Access.Redirects

	users := identity.NewStore(rt.db)
	authn := auth.NewAuthenticator(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.SessionCookie, identity.NewLoader(users))
	guard := auth.NewGuard(resolver, targets, rt.recorder)

	partnerSvc := partner.NewService(rt.db)
	auditSvc := audit.NewService(rt.db)

	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.CORS.AllowedOrigins))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.cache)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	accessH := handlers.NewAccessHandler(resolver, targets)
	partnerH := handlers.NewPartnerHandler(partnerSvc, auditSvc)
	adminH := handlers.NewAdminHandler(partnerSvc, users, auditSvc)
	sessionH := handlers.NewSessionHandler(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.SessionCookie, rt.cfg.Auth.SessionTTL,
		rt.cfg.Environment != "development")

	r.Group(func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Use(middleware.RateLimit(rt.cache, rt.cfg.RateLimit.Requests, rt.cfg.RateLimit.Window, "http"))

		r.Get("/home", accessH.Home)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/access/check", accessH.Check)
			r.Get("/me/access", accessH.Me)
			r.With(guard.API(access.ClassAuthenticated)).Post("/session/refresh", sessionH.Refresh)

			r.Route("/me/memberships", func(r chi.Router) {
				r.Use(guard.API(access.ClassAuthenticated))
				r.Get("/", partnerH.MyMemberships)
				r.Post("/{membershipID}/accept", partnerH.AcceptInvite)
				r.Post("/{membershipID}/decline", partnerH.DeclineInvite)
			})

			r.Route("/partners", func(r chi.Router) {
				r.With(guard.API(access.ClassAuthenticated)).Post("/", partnerH.Create)
				r.Route("/{partnerID}", func(r chi.Router) {
					r.With(
						guard.API(access.ClassPartnerStaffOrOwner),
						guard.RequirePartnerMember(),
					).Get("/", partnerH.Get)
					r.Group(func(r chi.Router) {
						r.Use(guard.API(access.ClassPartnerStaffOrOwner))
						r.Use(guard.RequirePartnerPermission(access.PermManageTeam))
						r.Get("/staff", partnerH.Staff)
						r.Post("/staff/{membershipID}/status", partnerH.StaffStatus)
					})
					r.With(
						guard.API(access.ClassPartnerOwner),
						guard.RequirePartnerOwner(),
					).Post("/invites", partnerH.Invite)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(guard.API(access.ClassAdmin))
				r.Post("/partners/{partnerID}/status", adminH.PartnerStatus)
				r.Post("/users/{userID}/status", adminH.UserStatus)
				r.Post("/users/{userID}/role", adminH.UserRole)
				r.Post("/memberships/{membershipID}/status", adminH.MembershipStatus)
				r.Get("/audit", adminH.AuditLogs)
				r.Get("/audit/export", adminH.AuditExport)
			})
		})

		// Everything else is a page of the front end.
		r.With(guard.Pages).Handle("/*", pages)
	})

	return r, nil
}

func (rt *Router) pagesHandler() (http.Handler, error) {
	if rt.cfg.Server.FrontendURL == "" {
		return http.NotFoundHandler(), nil
	}
	upstream, err := url.Parse(rt.cfg.Server.FrontendURL)
	if err != nil || upstream.Host == "" {
		return nil, fmt.Errorf("invalid FRONTEND_URL %q", rt.cfg.Server.FrontendURL)
	}
	return httputil.NewSingleHostReverseProxy(upstream), nil
}
