package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/models"
)

var (
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("user already holds a seat in this partner")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidRole        = errors.New("invalid staff role")
	ErrUnknownUser        = errors.New("user does not exist")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const partnerColumns = `id, name, status, tier, requested_by, approved_at, created_at, updated_at`

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func scanPartner(row pgx.Row) (*models.Partner, error) {
	var p models.Partner
	err := row.Scan(&p.ID, &p.Name, &p.Status, &p.Tier, &p.RequestedBy, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	return &p, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	p, err := scanPartner(s.db.QueryRow(ctx, "SELECT "+partnerColumns+" FROM partners WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

// CreateRequest files a new organization in pending status and seats the
// requester as its owner. The owner seat only takes effect once an admin
// approves the organization.
func (s *Service) CreateRequest(ctx context.Context, name, tier string, ownerID uuid.UUID) (*models.Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create partner: name is required")
	}
	if tier == "" {
		tier = "basic"
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPartner(tx.QueryRow(ctx,
		`INSERT INTO partners (name, status, tier, requested_by) VALUES ($1, $2, $3, $4)
		 RETURNING `+partnerColumns,
		name, string(access.PartnerPending), tier, ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert partner: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO partner_staff (partner_id, user_id, role, status,
		   can_manage_listings, can_manage_team, can_view_analytics, can_manage_bookings,
		   can_respond_to_leads, can_manage_financials, can_manage_settings, can_export_data)
		 VALUES ($1, $2, $3, $4, true, true, true, true, true, true, true, true)`,
		p.ID, ownerID, string(access.StaffOwner), string(access.MembershipActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert owner seat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit partner request: %w", err)
	}
	return p, nil
}

// SetPartnerStatus moves an organization through its approval workflow.
func (s *Service) SetPartnerStatus(ctx context.Context, id uuid.UUID, to access.PartnerStatus) (*models.Partner, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM partners WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock partner: %w", err)
	}

	from, ok := access.ParsePartnerStatus(current)
	if !ok || !CanTransitionPartner(from, to) {
		return nil, fmt.Errorf("%w: partner %s -> %s", ErrInvalidTransition, current, to)
	}

	p, err := scanPartner(tx.QueryRow(ctx,
		`UPDATE partners
		 SET status = $2,
		     approved_at = CASE WHEN $3 AND approved_at IS NULL THEN now() ELSE approved_at END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+partnerColumns,
		id, string(to), to == access.PartnerActive,
	))
	if err != nil {
		return nil, fmt.Errorf("update partner status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit partner status: %w", err)
	}
	return p, nil
}

// Invite creates an invited seat. Ownership is only granted through
// CreateRequest.
func (s *Service) Invite(ctx context.Context, partnerID, userID, invitedBy uuid.UUID, role access.StaffRole, perms access.Permissions) (*models.PartnerStaff, error) {
	switch role {
	case access.StaffAdmin, access.StaffSales, access.StaffStaff, access.StaffViewer:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO partner_staff (partner_id, user_id, role, status, invited_by,
		   can_manage_listings, can_manage_team, can_view_analytics, can_manage_bookings,
		   can_respond_to_leads, can_manage_financials, can_manage_settings, can_export_data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		partnerID, userID, string(role), string(access.MembershipInvited), invitedBy,
		perms.ManageListings, perms.ManageTeam, perms.ViewAnalytics, perms.ManageBookings,
		perms.RespondToLeads, perms.ManageFinancials, perms.ManageSettings, perms.ExportData,
	).Scan(&id)
	if err != nil {
		return nil, seatInsertError(err)
	}
	return s.GetMembership(ctx, id)
}

// seatInsertError maps constraint failures of a seat insert to domain errors.
// The only foreign keys on partner_staff are the partner, the user and the
// inviter, and the first and last are guaranteed by the route guard.
func seatInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrMembershipExists
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", ErrUnknownUser, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("insert seat: %w", err)
}

func (s *Service) GetMembership(ctx context.Context, id uuid.UUID) (*models.PartnerStaff, error) {
	m, err := identity.ScanStaff(s.db.QueryRow(ctx,
		"SELECT "+identity.StaffColumns+" FROM partner_staff s JOIN partners p ON p.id = s.partner_id WHERE s.id = $1", id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// SetMembershipStatus moves a seat along invited, active, suspended, left.
func (s *Service) SetMembershipStatus(ctx context.Context, id uuid.UUID, to access.MembershipStatus) (*models.PartnerStaff, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM partner_staff WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock membership: %w", err)
	}

	from, ok := access.ParseMembershipStatus(current)
	if !ok || !CanTransitionMembership(from, to) {
		return nil, fmt.Errorf("%w: membership %s -> %s", ErrInvalidTransition, current, to)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE partner_staff SET status = $2, updated_at = now() WHERE id = $1", id, string(to),
	); err != nil {
		return nil, fmt.Errorf("update membership status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit membership status: %w", err)
	}
	return s.GetMembership(ctx, id)
}

// ListMemberships returns every seat of a partner, including left ones.
func (s *Service) ListMemberships(ctx context.Context, partnerID uuid.UUID) ([]models.PartnerStaff, error) {
	return s.listSeats(ctx, "s.partner_id = $1", partnerID)
}

// ListUserMemberships returns every seat held by a user, pending invitations
// included.
func (s *Service) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.PartnerStaff, error) {
	return s.listSeats(ctx, "s.user_id = $1", userID)
}

func (s *Service) listSeats(ctx context.Context, where string, arg uuid.UUID) ([]models.PartnerStaff, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+identity.StaffColumns+" FROM partner_staff s JOIN partners p ON p.id = s.partner_id WHERE "+where+" ORDER BY s.created_at",
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("query partner staff: %w", err)
	}
	defer rows.Close()

	var seats []models.PartnerStaff
	for rows.Next() {
		m, err := identity.ScanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner staff: %w", err)
		}
		seats = append(seats, m)
	}
	return seats, rows.Err()
}
