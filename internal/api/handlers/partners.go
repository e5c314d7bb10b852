package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/models"
	"github.com/alifh/alifh/internal/partner"
)

type PartnerService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	CreateRequest(ctx context.Context, name, tier string, ownerID uuid.UUID) (*models.Partner, error)
	Invite(ctx context.Context, partnerID, userID, invitedBy uuid.UUID, role access.StaffRole, perms access.Permissions) (*models.PartnerStaff, error)
	ListMemberships(ctx context.Context, partnerID uuid.UUID) ([]models.PartnerStaff, error)
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.PartnerStaff, error)
	GetMembership(ctx context.Context, id uuid.UUID) (*models.PartnerStaff, error)
	SetMembershipStatus(ctx context.Context, id uuid.UUID, to access.MembershipStatus) (*models.PartnerStaff, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

type PartnerHandler struct {
	svc   PartnerService
	audit AuditLogger
}

func NewPartnerHandler(svc PartnerService, auditLog AuditLogger) *PartnerHandler {
	return &PartnerHandler{svc: svc, audit: auditLog}
}

type createPartnerRequest struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// Create files a partner organization request owned by the caller.
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	p, err := h.svc.CreateRequest(r.Context(), req.Name, req.Tier, identity.UserIDFromContext(r.Context()))
	if err != nil {
		internalError(w, r, "create partner", err)
		return
	}

	logAudit(r, h.audit, audit.LogEntry{
		Action:       audit.ActionPartnerRequested,
		ResourceType: "partner",
		ResourceID:   &p.ID,
		Details:      map[string]any{"name": p.Name, "tier": p.Tier},
	})
	writeJSON(w, r, http.StatusCreated, p)
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "partnerID")
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if !serviceError(w, r, "get partner", err) {
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (h *PartnerHandler) Staff(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := urlID(w, r, "partnerID")
	if !ok {
		return
	}
	seats, err := h.svc.ListMemberships(r.Context(), partnerID)
	if err != nil {
		internalError(w, r, "list partner staff", err)
		return
	}
	if seats == nil {
		seats = []models.PartnerStaff{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"staff": seats, "count": len(seats)})
}

// inviteRequest names the granted permissions, e.g. ["manage-team"].
type inviteRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
}

func (h *PartnerHandler) Invite(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := urlID(w, r, "partnerID")
	if !ok {
		return
	}
	var req inviteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	var perms access.Permissions
	for _, name := range req.Permissions {
		perm, err := access.ParsePermission(name)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		perms = perms.With(perm)
	}

	seat, err := h.svc.Invite(r.Context(), partnerID, req.UserID, identity.UserIDFromContext(r.Context()),
		access.ParseStaffRole(req.Role), perms)
	switch {
	case errors.Is(err, partner.ErrInvalidRole):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, partner.ErrUnknownUser):
		writeError(w, r, http.StatusNotFound, partner.ErrUnknownUser.Error())
		return
	case errors.Is(err, partner.ErrMembershipExists):
		writeError(w, r, http.StatusConflict, err.Error())
		return
	case err != nil:
		internalError(w, r, "invite staff", err)
		return
	}

	logAudit(r, h.audit, audit.LogEntry{
		Action:       audit.ActionStaffInvited,
		ResourceType: "partner_staff",
		ResourceID:   &seat.ID,
		Details:      map[string]any{"partner_id": partnerID, "user_id": req.UserID, "role": seat.Role},
	})
	writeJSON(w, r, http.StatusCreated, seat)
}

// StaffStatus lets a team manager suspend, reinstate or remove a seat of
// their own partner. Owner seats and the caller's own seat are out of reach,
// and invitations can only be accepted by the invitee.
func (h *PartnerHandler) StaffStatus(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := urlID(w, r, "partnerID")
	if !ok {
		return
	}
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

	seat, err := h.svc.GetMembership(r.Context(), id)
	if !serviceError(w, r, "get membership", err) {
		return
	}
	if seat.PartnerID != partnerID {
		writeError(w, r, http.StatusNotFound, partner.ErrMembershipNotFound.Error())
		return
	}
	if access.ParseStaffRole(seat.Role) == access.StaffOwner {
		writeError(w, r, http.StatusForbidden, "owner seats are managed by platform admins")
		return
	}
	if seat.UserID == identity.UserIDFromContext(r.Context()) {
		writeError(w, r, http.StatusForbidden, "cannot change your own seat")
		return
	}
	if seat.Status == string(access.MembershipInvited) && to == access.MembershipActive {
		writeError(w, r, http.StatusConflict, "only the invited user can accept an invitation")
		return
	}

	h.setSeatStatus(w, r, seat.ID, to)
}

// MyMemberships lists the caller's seats, pending invitations included.
func (h *PartnerHandler) MyMemberships(w http.ResponseWriter, r *http.Request) {
	seats, err := h.svc.ListUserMemberships(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		internalError(w, r, "list user memberships", err)
		return
	}
	if seats == nil {
		seats = []models.PartnerStaff{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"memberships": seats, "count": len(seats)})
}

func (h *PartnerHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.answerInvite(w, r, access.MembershipActive)
}

func (h *PartnerHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	h.answerInvite(w, r, access.MembershipLeft)
}

// answerInvite settles an invitation addressed to the caller. Seats of other
// users are reported as missing.
func (h *PartnerHandler) answerInvite(w http.ResponseWriter, r *http.Request, to access.MembershipStatus) {
	id, ok := urlID(w, r, "membershipID")
	if !ok {
		return
	}
	seat, err := h.svc.GetMembership(r.Context(), id)
	if !serviceError(w, r, "get membership", err) {
		return
	}
	if seat.UserID != identity.UserIDFromContext(r.Context()) {
		writeError(w, r, http.StatusNotFound, partner.ErrMembershipNotFound.Error())
		return
	}
	if seat.Status != string(access.MembershipInvited) {
		writeError(w, r, http.StatusConflict, "membership is not a pending invitation")
		return
	}

	h.setSeatStatus(w, r, seat.ID, to)
}

func (h *PartnerHandler) setSeatStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID, to access.MembershipStatus) {
	seat, err := h.svc.SetMembershipStatus(r.Context(), id, to)
	if !serviceError(w, r, "set membership status", err) {
		return
	}

	logAudit(r, h.audit, audit.LogEntry{
		Action:       audit.ActionMembershipStatus,
		ResourceType: "partner_staff",
		ResourceID:   &seat.ID,
		Details:      map[string]any{"status": seat.Status, "partner_id": seat.PartnerID},
	})
	writeJSON(w, r, http.StatusOK, seat)
}

// serviceError maps partner service errors to responses. It returns true when
// err is nil.
func serviceError(w http.ResponseWriter, r *http.Request, op string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, partner.ErrPartnerNotFound),
		errors.Is(err, partner.ErrMembershipNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, partner.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		internalError(w, r, op, err)
	}
	return false
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// logAudit records entry with the client address. A failed write is logged
// and does not fail the request.
func logAudit(r *http.Request, logger AuditLogger, entry audit.LogEntry) {
	if logger == nil {
		return
	}
	entry.IPAddress = r.RemoteAddr
	if err := logger.Log(r.Context(), entry); err != nil {
		slog.Warn("failed to write audit log", "action", entry.Action, "error", err)
	}
}
