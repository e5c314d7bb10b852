package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/api/handlers"
	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/auth"
	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/models"
	"github.com/alifh/alifh/internal/partner"
)

type fakePing struct{ err error }

func (f fakePing) Ping(ctx context.Context) error { return f.err }

type fakePartners struct {
	created     []string
	invited     []access.StaffRole
	grants      []access.Permissions
	seats       []models.PartnerStaff
	memberships map[uuid.UUID]models.PartnerStaff
	moves       []access.MembershipStatus
	inviteFn    func(role access.StaffRole) error
	statusFn    func(to access.PartnerStatus) error
}

func (f *fakePartners) Get(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	for _, s := range f.seats {
		if s.PartnerID == id {
			return &models.Partner{ID: id, Name: "Blue Dunes Realty", Status: s.PartnerStatus}, nil
		}
	}
	return nil, partner.ErrPartnerNotFound
}

func (f *fakePartners) CreateRequest(ctx context.Context, name, tier string, ownerID uuid.UUID) (*models.Partner, error) {
	f.created = append(f.created, name)
	return &models.Partner{ID: uuid.New(), Name: name, Tier: tier, Status: "pending", RequestedBy: &ownerID}, nil
}

func (f *fakePartners) Invite(ctx context.Context, partnerID, userID, invitedBy uuid.UUID, role access.StaffRole, perms access.Permissions) (*models.PartnerStaff, error) {
	if f.inviteFn != nil {
		if err := f.inviteFn(role); err != nil {
			return nil, err
		}
	}
	f.invited = append(f.invited, role)
	f.grants = append(f.grants, perms)
	return &models.PartnerStaff{ID: uuid.New(), PartnerID: partnerID, UserID: userID, Role: string(role), Status: "invited"}, nil
}

func (f *fakePartners) ListMemberships(ctx context.Context, partnerID uuid.UUID) ([]models.PartnerStaff, error) {
	return f.seats, nil
}

func (f *fakePartners) SetPartnerStatus(ctx context.Context, id uuid.UUID, to access.PartnerStatus) (*models.Partner, error) {
	if f.statusFn != nil {
		if err := f.statusFn(to); err != nil {
			return nil, err
		}
	}
	return &models.Partner{ID: id, Status: string(to)}, nil
}

func (f *fakePartners) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.PartnerStaff, error) {
	var out []models.PartnerStaff
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePartners) GetMembership(ctx context.Context, id uuid.UUID) (*models.PartnerStaff, error) {
	m, ok := f.memberships[id]
	if !ok {
		return nil, partner.ErrMembershipNotFound
	}
	return &m, nil
}

func (f *fakePartners) SetMembershipStatus(ctx context.Context, id uuid.UUID, to access.MembershipStatus) (*models.PartnerStaff, error) {
	f.moves = append(f.moves, to)
	m, ok := f.memberships[id]
	if !ok {
		m = models.PartnerStaff{ID: id}
	}
	m.Status = string(to)
	return &m, nil
}

type fakeUsers struct {
	accounts map[uuid.UUID]*models.User
	roles    []access.PlatformRole
	err      error
}

func (f *fakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.accounts[id]; ok {
		return u, nil
	}
	return &models.User{ID: id, PlatformRole: string(access.RoleUser), Status: string(access.StatusActive)}, nil
}

func (f *fakeUsers) SetStatus(ctx context.Context, id uuid.UUID, status access.AccountStatus) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, Status: string(status)}, nil
}

func (f *fakeUsers) SetRole(ctx context.Context, id uuid.UUID, role access.PlatformRole) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.roles = append(f.roles, role)
	return &models.User{ID: id, PlatformRole: string(role)}, nil
}

type fakeAudit struct {
	entries []audit.LogEntry
	queries []audit.AuditQuery
	logs    []models.AuditLog
}

func (f *fakeAudit) Log(ctx context.Context, entry audit.LogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) GetAuditLogs(ctx context.Context, q audit.AuditQuery) ([]models.AuditLog, error) {
	f.queries = append(f.queries, q)
	return f.logs, nil
}

func subject(role access.PlatformRole, ms ...access.Membership) *identity.Subject {
	id := uuid.New()
	return &identity.Subject{
		User:        &models.User{ID: id, Email: "someone@alifh.test"},
		Access:      &access.User{ID: id.String(), PlatformRole: role, Status: access.StatusActive, EmailVerified: true},
		Memberships: ms,
	}
}

func do(t *testing.T, h http.Handler, method, target string, s *identity.Subject, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	if s != nil {
		r = r.WithContext(identity.WithSubject(r.Context(), s))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestReadyz(t *testing.T) {
	w := do(t, http.HandlerFunc(handlers.NewHealthHandler(fakePing{}, fakePing{}).Readyz), http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, http.HandlerFunc(handlers.NewHealthHandler(fakePing{}, fakePing{err: errors.New("refused")}).Readyz), http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decodeBody(t, w)["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Contains(t, checks["redis"], "refused")
}

func accessHandler() *handlers.AccessHandler {
	return handlers.NewAccessHandler(
		access.NewResolver(access.DefaultRouteTable(), access.DefaultRoutes()),
		access.DefaultRedirectTargets(),
	)
}

func TestAccessMe(t *testing.T) {
	h := http.HandlerFunc(accessHandler().Me)

	w := do(t, h, http.MethodGet, "/api/v1/me/access", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	owner := subject(access.RoleUser, access.Membership{
		PartnerID: "p1", PartnerStatus: access.PartnerActive, StaffRole: access.StaffOwner, Status: access.MembershipActive,
	})
	w = do(t, h, http.MethodGet, "/api/v1/me/access", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	decision := decodeBody(t, w)["decision"].(map[string]any)
	assert.Equal(t, "partner-owner", decision["home"])
	assert.Equal(t, "/partner/owner/dashboard", decision["home_path"])
	assert.Equal(t, true, decision["authorization"].(map[string]any)["allowed"])
	portals := decision["portals"].(map[string]any)
	assert.Equal(t, true, portals["partner_owner"])
	assert.Equal(t, false, portals["admin"])
}

func TestAccessCheck(t *testing.T) {
	h := http.HandlerFunc(accessHandler().Check)

	w := do(t, h, http.MethodGet, "/api/v1/access/check", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/access/check?path=/admin/users", subject(access.RoleUser), nil)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "insufficient-platform-role", body["reason"])
	assert.Equal(t, "/unauthorized", body["redirect"])
	assert.Equal(t, "admin", body["class"])

	w = do(t, h, http.MethodGet, "/api/v1/access/check?path=/about", nil, nil)
	assert.Equal(t, true, decodeBody(t, w)["allowed"])
}

func TestAccessHome(t *testing.T) {
	h := http.HandlerFunc(accessHandler().Home)

	w := do(t, h, http.MethodGet, "/home", subject(access.RoleStaff), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/home", nil, nil)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/sign-in?callbackUrl="))
}

func partnerRouter(svc *fakePartners, log *fakeAudit) http.Handler {
	h := handlers.NewPartnerHandler(svc, log)
	r := chi.NewRouter()
	r.Post("/partners", h.Create)
	r.Get("/partners/{partnerID}/staff", h.Staff)
	r.Post("/partners/{partnerID}/invites", h.Invite)
	r.Get("/partners/{partnerID}", h.Get)
	r.Post("/partners/{partnerID}/staff/{membershipID}/status", h.StaffStatus)
	r.Get("/me/memberships", h.MyMemberships)
	r.Post("/me/memberships/{membershipID}/accept", h.AcceptInvite)
	r.Post("/me/memberships/{membershipID}/decline", h.DeclineInvite)
	return r
}

func TestPartnerCreate(t *testing.T) {
	svc, log := &fakePartners{}, &fakeAudit{}
	h := partnerRouter(svc, log)

	w := do(t, h, http.MethodPost, "/partners", subject(access.RoleUser), map[string]string{"name": "Blue Dunes Realty"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"Blue Dunes Realty"}, svc.created)
	require.Len(t, log.entries, 1)
	assert.Equal(t, audit.ActionPartnerRequested, log.entries[0].Action)

	w = do(t, h, http.MethodPost, "/partners", subject(access.RoleUser), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartnerInvite(t *testing.T) {
	pid := uuid.New()
	svc := &fakePartners{inviteFn: func(role access.StaffRole) error {
		if role == access.StaffOwner || role == access.StaffUnknown {
			return partner.ErrInvalidRole
		}
		return nil
	}}
	h := partnerRouter(svc, &fakeAudit{})
	target := "/partners/" + pid.String() + "/invites"

	w := do(t, h, http.MethodPost, target, subject(access.RoleUser), map[string]any{
		"user_id": uuid.New(), "role": "sales", "permissions": []string{"respond-to-leads", "view_analytics"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []access.StaffRole{access.StaffSales}, svc.invited)
	assert.Equal(t, []access.Permissions{{RespondToLeads: true, ViewAnalytics: true}}, svc.grants)

	w = do(t, h, http.MethodPost, target, subject(access.RoleUser), map[string]any{
		"user_id": uuid.New(), "role": "sales", "permissions": []string{"launch-rockets"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, svc.invited, 1)

	w = do(t, h, http.MethodPost, target, subject(access.RoleUser), map[string]any{"user_id": uuid.New(), "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.inviteFn = func(access.StaffRole) error { return partner.ErrMembershipExists }
	w = do(t, h, http.MethodPost, target, subject(access.RoleUser), map[string]any{"user_id": uuid.New(), "role": "staff"})
	assert.Equal(t, http.StatusConflict, w.Code)

	svc.inviteFn = func(access.StaffRole) error { return fmt.Errorf("%w: partner_staff_user_id_fkey", partner.ErrUnknownUser) }
	w = do(t, h, http.MethodPost, target, subject(access.RoleUser), map[string]any{"user_id": uuid.New(), "role": "staff"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user does not exist", decodeBody(t, w)["error"])

	w = do(t, h, http.MethodPost, "/partners/not-a-uuid/invites", subject(access.RoleUser), map[string]any{"user_id": uuid.New()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartnerGet(t *testing.T) {
	pid := uuid.New()
	h := partnerRouter(&fakePartners{seats: []models.PartnerStaff{{PartnerID: pid, PartnerStatus: "active"}}}, nil)

	w := do(t, h, http.MethodGet, "/partners/"+pid.String(), subject(access.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", decodeBody(t, w)["status"])

	w = do(t, h, http.MethodGet, "/partners/"+uuid.NewString(), subject(access.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMembershipInvitations(t *testing.T) {
	me := subject(access.RoleUser)
	someoneElse := uuid.New()
	pending := models.PartnerStaff{ID: uuid.New(), PartnerID: uuid.New(), UserID: me.User.ID, Role: "sales", Status: "invited"}
	active := models.PartnerStaff{ID: uuid.New(), PartnerID: uuid.New(), UserID: me.User.ID, Role: "staff", Status: "active"}
	foreign := models.PartnerStaff{ID: uuid.New(), PartnerID: uuid.New(), UserID: someoneElse, Role: "staff", Status: "invited"}

	newSvc := func() *fakePartners {
		return &fakePartners{memberships: map[uuid.UUID]models.PartnerStaff{
			pending.ID: pending, active.ID: active, foreign.ID: foreign,
		}}
	}

	t.Run("lists own seats", func(t *testing.T) {
		w := do(t, partnerRouter(newSvc(), nil), http.MethodGet, "/me/memberships", me, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeBody(t, w)["count"])
	})

	tests := []struct {
		name   string
		seat   uuid.UUID
		action string
		status int
		moved  []access.MembershipStatus
	}{
		{"accept", pending.ID, "accept", http.StatusOK, []access.MembershipStatus{access.MembershipActive}},
		{"decline", pending.ID, "decline", http.StatusOK, []access.MembershipStatus{access.MembershipLeft}},
		{"not pending", active.ID, "accept", http.StatusConflict, nil},
		{"someone else's invite", foreign.ID, "accept", http.StatusNotFound, nil},
		{"unknown seat", uuid.New(), "decline", http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, log := newSvc(), &fakeAudit{}
			w := do(t, partnerRouter(svc, log), http.MethodPost, "/me/memberships/"+tt.seat.String()+"/"+tt.action, me, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.moved, svc.moves)
			if tt.moved != nil {
				require.Len(t, log.entries, 1)
				assert.Equal(t, audit.ActionMembershipStatus, log.entries[0].Action)
			}
		})
	}
}

func TestPartnerStaffStatus(t *testing.T) {
	pid := uuid.New()
	manager := subject(access.RoleUser)
	seatOf := func(user uuid.UUID, role, status string) models.PartnerStaff {
		return models.PartnerStaff{ID: uuid.New(), PartnerID: pid, UserID: user, Role: role, Status: status}
	}
	sales := seatOf(uuid.New(), "sales", "active")
	owner := seatOf(uuid.New(), "owner", "active")
	mine := seatOf(manager.User.ID, "admin", "active")
	invited := seatOf(uuid.New(), "viewer", "invited")
	elsewhere := sales
	elsewhere.ID = uuid.New()
	elsewhere.PartnerID = uuid.New()

	tests := []struct {
		name   string
		seat   models.PartnerStaff
		to     string
		status int
	}{
		{"suspend sales", sales, "suspended", http.StatusOK},
		{"remove sales", sales, "left", http.StatusOK},
		{"revoke invitation", invited, "left", http.StatusOK},
		{"cannot accept for invitee", invited, "active", http.StatusConflict},
		{"owner seat", owner, "suspended", http.StatusForbidden},
		{"own seat", mine, "left", http.StatusForbidden},
		{"seat of another partner", elsewhere, "suspended", http.StatusNotFound},
		{"bad status", sales, "fired", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePartners{memberships: map[uuid.UUID]models.PartnerStaff{tt.seat.ID: tt.seat}}
			target := "/partners/" + pid.String() + "/staff/" + tt.seat.ID.String() + "/status"
			w := do(t, partnerRouter(svc, &fakeAudit{}), http.MethodPost, target, manager, map[string]string{"status": tt.to})
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, []access.MembershipStatus{access.MembershipStatus(tt.to)}, svc.moves)
			} else {
				assert.Empty(t, svc.moves)
			}
		})
	}
}

func TestPartnerStaffListIsNeverNull(t *testing.T) {
	w := do(t, partnerRouter(&fakePartners{}, nil), http.MethodGet, "/partners/"+uuid.NewString()+"/staff", subject(access.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decodeBody(t, w)["staff"])
}

func adminRouter(partners *fakePartners, users *fakeUsers, log *fakeAudit) http.Handler {
	h := handlers.NewAdminHandler(partners, users, log)
	r := chi.NewRouter()
	r.Post("/partners/{partnerID}/status", h.PartnerStatus)
	r.Post("/users/{userID}/status", h.UserStatus)
	r.Post("/users/{userID}/role", h.UserRole)
	r.Post("/memberships/{membershipID}/status", h.MembershipStatus)
	r.Get("/audit", h.AuditLogs)
	r.Get("/audit/export", h.AuditExport)
	return r
}

func TestAdminPartnerStatus(t *testing.T) {
	partners := &fakePartners{statusFn: func(to access.PartnerStatus) error {
		if to == access.PartnerPending {
			return partner.ErrInvalidTransition
		}
		return nil
	}}
	log := &fakeAudit{}
	h := adminRouter(partners, &fakeUsers{}, log)
	target := "/partners/" + uuid.NewString() + "/status"

	w := do(t, h, http.MethodPost, target, subject(access.RoleStaff), map[string]string{"status": "active"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, log.entries, 1)
	assert.Equal(t, audit.ActionPartnerStatus, log.entries[0].Action)

	w = do(t, h, http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminUserRole(t *testing.T) {
	adminID, superID := uuid.New(), uuid.New()
	users := &fakeUsers{accounts: map[uuid.UUID]*models.User{
		adminID: {ID: adminID, PlatformRole: string(access.RoleAdmin)},
		superID: {ID: superID, PlatformRole: string(access.RoleSuperAdmin)},
	}}
	h := adminRouter(&fakePartners{}, users, &fakeAudit{})
	plain := uuid.New()

	tests := []struct {
		name   string
		caller access.PlatformRole
		target uuid.UUID
		role   string
		status int
	}{
		{"staff cannot change roles", access.RoleStaff, plain, "user", http.StatusForbidden},
		{"admin grants staff", access.RoleAdmin, plain, "staff", http.StatusOK},
		{"admin cannot grant admin", access.RoleAdmin, plain, "admin", http.StatusForbidden},
		{"admin cannot demote admin", access.RoleAdmin, adminID, "user", http.StatusForbidden},
		{"admin cannot demote super-admin", access.RoleAdmin, superID, "staff", http.StatusForbidden},
		{"super-admin grants admin", access.RoleSuperAdmin, plain, "admin", http.StatusOK},
		{"super-admin demotes admin", access.RoleSuperAdmin, adminID, "staff", http.StatusOK},
		{"unknown role", access.RoleSuperAdmin, plain, "root", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/users/"+tt.target.String()+"/role", subject(tt.caller), map[string]string{"role": tt.role})
			assert.Equal(t, tt.status, w.Code)
		})
	}
	assert.Equal(t, []access.PlatformRole{access.RoleStaff, access.RoleAdmin, access.RoleStaff}, users.roles)
}

func TestAdminCannotChangeOwnAccount(t *testing.T) {
	users := &fakeUsers{}
	h := adminRouter(&fakePartners{}, users, &fakeAudit{})
	me := subject(access.RoleSuperAdmin)

	w := do(t, h, http.MethodPost, "/users/"+me.User.ID.String()+"/role", me, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, http.MethodPost, "/users/"+me.User.ID.String()+"/status", me, map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, users.roles)
}

func TestAdminUserStatus(t *testing.T) {
	target := "/users/" + uuid.NewString() + "/status"

	w := do(t, adminRouter(&fakePartners{}, &fakeUsers{}, &fakeAudit{}), http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, adminRouter(&fakePartners{}, &fakeUsers{err: identity.ErrUserNotFound}, &fakeAudit{}), http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "active"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, adminRouter(&fakePartners{}, &fakeUsers{}, &fakeAudit{}), http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "enabled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	superID := uuid.New()
	users := &fakeUsers{accounts: map[uuid.UUID]*models.User{
		superID: {ID: superID, PlatformRole: string(access.RoleSuperAdmin)},
	}}
	w = do(t, adminRouter(&fakePartners{}, users, &fakeAudit{}), http.MethodPost, "/users/"+superID.String()+"/status", subject(access.RoleAdmin), map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, adminRouter(&fakePartners{}, users, &fakeAudit{}), http.MethodPost, "/users/"+superID.String()+"/status", subject(access.RoleSuperAdmin), map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionRefresh(t *testing.T) {
	h := http.HandlerFunc(handlers.NewSessionHandler("test-secret", "alifh_session", time.Hour, true).Refresh)

	w := do(t, h, http.MethodPost, "/api/v1/session/refresh", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s := subject(access.RoleUser)
	w = do(t, h, http.MethodPost, "/api/v1/session/refresh", s, nil)
	require.Equal(t, http.StatusOK, w.Code)

	token, _ := decodeBody(t, w)["token"].(string)
	_, userID, err := auth.ParseToken([]byte("test-secret"), token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, userID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "alifh_session", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestAdminMembershipStatus(t *testing.T) {
	h := adminRouter(&fakePartners{}, &fakeUsers{}, &fakeAudit{})
	target := "/memberships/" + uuid.NewString() + "/status"

	w := do(t, h, http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "suspended", decodeBody(t, w)["status"])

	w = do(t, h, http.MethodPost, target, subject(access.RoleAdmin), map[string]string{"status": "banned"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAuditLogs(t *testing.T) {
	log := &fakeAudit{}
	h := adminRouter(&fakePartners{}, &fakeUsers{}, log)
	actor := uuid.New()

	w := do(t, h, http.MethodGet, "/audit?action=access.denied&actor_id="+actor.String()+"&start_date=2026-01-01T00:00:00Z&limit=20", subject(access.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, log.queries, 1)
	q := log.queries[0]
	assert.Equal(t, "access.denied", q.Action)
	assert.Equal(t, actor, *q.ActorID)
	assert.Equal(t, 2026, q.StartDate.Year())
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	w = do(t, h, http.MethodGet, "/audit?start_date=yesterday", subject(access.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAuditExport(t *testing.T) {
	log := &fakeAudit{logs: []models.AuditLog{{ID: uuid.New(), Action: audit.ActionUserRole}}}
	w := do(t, adminRouter(&fakePartners{}, &fakeUsers{}, log), http.MethodGet, "/audit/export", subject(access.RoleAdmin), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, 500, log.queries[0].Limit)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
