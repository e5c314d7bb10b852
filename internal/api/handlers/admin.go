package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/models"
)

type PartnerAdmin interface {
	SetPartnerStatus(ctx context.Context, id uuid.UUID, to access.PartnerStatus) (*models.Partner, error)
	SetMembershipStatus(ctx context.Context, id uuid.UUID, to access.MembershipStatus) (*models.PartnerStaff, error)
}

type UserAdmin interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status access.AccountStatus) (*models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role access.PlatformRole) (*models.User, error)
}

type AuditReader interface {
	AuditLogger
	GetAuditLogs(ctx context.Context, q audit.AuditQuery) ([]models.AuditLog, error)
}

type AdminHandler struct {
	partners PartnerAdmin
	users    UserAdmin
	auditSvc AuditReader
}

func NewAdminHandler(partners PartnerAdmin, users UserAdmin, auditSvc AuditReader) *AdminHandler {
	return &AdminHandler{partners: partners, users: users, auditSvc: auditSvc}
}

type statusRequest struct {
	Status string `json:"status"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) PartnerStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "partnerID")
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	to, ok := access.ParsePartnerStatus(req.Status)
	if !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown partner status %q", req.Status))
		return
	}

	p, err := h.partners.SetPartnerStatus(r.Context(), id, to)
	if !serviceError(w, r, "set partner status", err) {
		return
	}

	logAudit(r, h.auditSvc, audit.LogEntry{
		Action:       audit.ActionPartnerStatus,
		ResourceType: "partner",
		ResourceID:   &p.ID,
		Details:      map[string]any{"status": p.Status},
	})
	writeJSON(w, r, http.StatusOK, p)
}

func (h *AdminHandler) MembershipStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "membershipID")
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	to, ok := access.ParseMembershipStatus(req.Status)
	if !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown membership status %q", req.Status))
		return
	}

	seat, err := h.partners.SetMembershipStatus(r.Context(), id, to)
	if !serviceError(w, r, "set membership status", err) {
		return
	}

	logAudit(r, h.auditSvc, audit.LogEntry{
		Action:       audit.ActionMembershipStatus,
		ResourceType: "partner_staff",
		ResourceID:   &seat.ID,
		Details:      map[string]any{"status": seat.Status, "partner_id": seat.PartnerID},
	})
	writeJSON(w, r, http.StatusOK, seat)
}

// UserStatus changes an account status. Platform staff share the admin
// surface but may not change accounts.
func (h *AdminHandler) UserStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireAdminCaller(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	status := access.ParseAccountStatus(req.Status)
	if status == access.StatusUnknown {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown account status %q", req.Status))
		return
	}
	if !h.guardTarget(w, r, caller, id) {
		return
	}

	u, err := h.users.SetStatus(r.Context(), id, status)
	if !serviceError(w, r, "set user status", err) {
		return
	}

	logAudit(r, h.auditSvc, audit.LogEntry{
		Action:       audit.ActionUserStatus,
		ResourceType: "user",
		ResourceID:   &u.ID,
		Details:      map[string]any{"status": u.Status},
	})
	writeJSON(w, r, http.StatusOK, u)
}

// UserRole changes a platform role. Granting admin or super-admin, or
// changing an existing admin, needs a super-admin caller.
func (h *AdminHandler) UserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireAdminCaller(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	role, ok := access.LookupPlatformRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown platform role %q", req.Role))
		return
	}
	if role.IsAdmin() && caller.PlatformRole != access.RoleSuperAdmin {
		writeError(w, r, http.StatusForbidden, "only a super-admin can grant admin roles")
		return
	}
	if !h.guardTarget(w, r, caller, id) {
		return
	}

	u, err := h.users.SetRole(r.Context(), id, role)
	if !serviceError(w, r, "set user role", err) {
		return
	}

	logAudit(r, h.auditSvc, audit.LogEntry{
		Action:       audit.ActionUserRole,
		ResourceType: "user",
		ResourceID:   &u.ID,
		Details:      map[string]any{"role": u.PlatformRole},
	})
	writeJSON(w, r, http.StatusOK, u)
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q, ok := auditQuery(w, r)
	if !ok {
		return
	}
	logs, err := h.auditSvc.GetAuditLogs(r.Context(), q)
	if err != nil {
		internalError(w, r, "list audit logs", err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"audit_logs": logs, "count": len(logs)})
}

// AuditExport returns the filtered audit log as an xlsx download.
func (h *AdminHandler) AuditExport(w http.ResponseWriter, r *http.Request) {
	q, ok := auditQuery(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("limit") == "" {
		q.Limit = 500
	}
	logs, err := h.auditSvc.GetAuditLogs(r.Context(), q)
	if err != nil {
		internalError(w, r, "export audit logs", err)
		return
	}
	data, err := audit.Export(logs)
	if err != nil {
		internalError(w, r, "render audit export", err)
		return
	}

	name := fmt.Sprintf("audit-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// guardTarget loads the account an admin wants to change. Nobody changes
// their own account here, and admin accounts are only touched by a
// super-admin.
func (h *AdminHandler) guardTarget(w http.ResponseWriter, r *http.Request, caller *access.User, id uuid.UUID) bool {
	if caller.ID == id.String() {
		writeError(w, r, http.StatusForbidden, "cannot change your own account")
		return false
	}
	target, err := h.users.GetUser(r.Context(), id)
	if !serviceError(w, r, "get user", err) {
		return false
	}
	if access.ParsePlatformRole(target.PlatformRole).IsAdmin() && caller.PlatformRole != access.RoleSuperAdmin {
		writeError(w, r, http.StatusForbidden, "only a super-admin can change an admin account")
		return false
	}
	return true
}

func requireAdminCaller(w http.ResponseWriter, r *http.Request) (*access.User, bool) {
	u, _ := identity.AccessFromContext(r.Context())
	if u == nil || !u.PlatformRole.IsAdmin() {
		writeError(w, r, http.StatusForbidden, string(access.ReasonInsufficientRole))
		return nil, false
	}
	return u, true
}

func auditQuery(w http.ResponseWriter, r *http.Request) (audit.AuditQuery, bool) {
	v := r.URL.Query()
	q := audit.AuditQuery{
		Action:       v.Get("action"),
		ResourceType: v.Get("resource_type"),
	}
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	q.Offset, _ = strconv.Atoi(v.Get("offset"))

	if s := v.Get("actor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid actor_id")
			return q, false
		}
		q.ActorID = &id
	}
	for key, dst := range map[string]**time.Time{"start_date": &q.StartDate, "end_date": &q.EndDate} {
		s := v.Get(key)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid "+key+", want RFC3339")
			return q, false
		}
		*dst = &t
	}
	return q, true
}
