package models

import (
	"time"

	"github.com/google/uuid"
)

type Partner struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Status      string     `json:"status" db:"status"`
	Tier        string     `json:"tier" db:"tier"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty" db:"requested_by"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PartnerStaff is a staff seat: one user in one partner organization.
type PartnerStaff struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	PartnerID     uuid.UUID       `json:"partner_id" db:"partner_id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Role          string          `json:"role" db:"role"`
	Status        string          `json:"status" db:"status"`
	Permissions   StaffPermission `json:"permissions" db:"permissions"`
	InvitedBy     *uuid.UUID      `json:"invited_by,omitempty" db:"invited_by"`
	PartnerStatus string          `json:"partner_status,omitempty" db:"partner_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

type StaffPermission struct {
	ManageListings   bool `json:"manage_listings" db:"can_manage_listings"`
	ManageTeam       bool `json:"manage_team" db:"can_manage_team"`
	ViewAnalytics    bool `json:"view_analytics" db:"can_view_analytics"`
	ManageBookings   bool `json:"manage_bookings" db:"can_manage_bookings"`
	RespondToLeads   bool `json:"respond_to_leads" db:"can_respond_to_leads"`
	ManageFinancials bool `json:"manage_financials" db:"can_manage_financials"`
	ManageSettings   bool `json:"manage_settings" db:"can_manage_settings"`
	ExportData       bool `json:"export_data" db:"can_export_data"`
}
