package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// StaffColumns selects a partner_staff row aliased s joined with its partner
// aliased p, in the order ScanStaff expects.
const StaffColumns = `s.id, s.partner_id, s.user_id, s.role, s.status,
	s.can_manage_listings, s.can_manage_team, s.can_view_analytics, s.can_manage_bookings,
	s.can_respond_to_leads, s.can_manage_financials, s.can_manage_settings, s.can_export_data,
	s.invited_by, p.status, s.created_at, s.updated_at`

const userColumns = `id, email, full_name, email_verified, status, platform_role, created_at, updated_at, deleted_at`

// Store reads users and their staff seats from postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1 AND deleted_at IS NULL", id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.EmailVerified, &u.Status, &u.PlatformRole, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListActiveMemberships returns the user's seats with status active, each
// carrying the current status of its partner. Partner status is not
// filtered here.
func (s *Store) ListActiveMemberships(ctx context.Context, userID uuid.UUID) ([]models.PartnerStaff, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+StaffColumns+`
		 FROM partner_staff s
		 JOIN partners p ON p.id = s.partner_id
		 WHERE s.user_id = $1 AND s.status = 'active'
		 ORDER BY s.created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var seats []models.PartnerStaff
	for rows.Next() {
		m, err := ScanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		seats = append(seats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return seats, nil
}

// ScanStaff scans a row selected with StaffColumns.
func ScanStaff(row pgx.Row) (models.PartnerStaff, error) {
	var m models.PartnerStaff
	p := &m.Permissions
	err := row.Scan(&m.ID, &m.PartnerID, &m.UserID, &m.Role, &m.Status,
		&p.ManageListings, &p.ManageTeam, &p.ViewAnalytics, &p.ManageBookings,
		&p.RespondToLeads, &p.ManageFinancials, &p.ManageSettings, &p.ExportData,
		&m.InvitedBy, &m.PartnerStatus, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// SetStatus changes an account's status. Only administrative handlers call it.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status access.AccountStatus) (*models.User, error) {
	return s.update(ctx, "status", string(status), id)
}

// SetRole changes an account's platform role.
func (s *Store) SetRole(ctx context.Context, id uuid.UUID, role access.PlatformRole) (*models.User, error) {
	return s.update(ctx, "platform_role", string(role), id)
}

func (s *Store) update(ctx context.Context, column, value string, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"UPDATE users SET "+column+" = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL RETURNING "+userColumns,
		id, value,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.EmailVerified, &u.Status, &u.PlatformRole, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", column, err)
	}
	return &u, nil
}
