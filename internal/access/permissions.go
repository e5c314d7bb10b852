package access

import "fmt"

// Permission is a capability granted by a staff seat.
type Permission string

const (
	PermManageListings   Permission = "manage-listings"
	PermManageTeam       Permission = "manage-team"
	PermViewAnalytics    Permission = "view-analytics"
	PermManageBookings   Permission = "manage-bookings"
	PermRespondToLeads   Permission = "respond-to-leads"
	PermManageFinancials Permission = "manage-financials"
	PermManageSettings   Permission = "manage-settings"
	PermExportData       Permission = "export-data"
)

// Permissions is the boolean permission set stored on a staff seat.
type Permissions struct {
	ManageListings   bool `json:"manage_listings"`
	ManageTeam       bool `json:"manage_team"`
	ViewAnalytics    bool `json:"view_analytics"`
	ManageBookings   bool `json:"manage_bookings"`
	RespondToLeads   bool `json:"respond_to_leads"`
	ManageFinancials bool `json:"manage_financials"`
	ManageSettings   bool `json:"manage_settings"`
	ExportData       bool `json:"export_data"`
}

// Has reports whether the set grants perm. Unknown permissions are never granted.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermManageListings:
		return p.ManageListings
	case PermManageTeam:
		return p.ManageTeam
	case PermViewAnalytics:
		return p.ViewAnalytics
	case PermManageBookings:
		return p.ManageBookings
	case PermRespondToLeads:
		return p.RespondToLeads
	case PermManageFinancials:
		return p.ManageFinancials
	case PermManageSettings:
		return p.ManageSettings
	case PermExportData:
		return p.ExportData
	default:
		return false
	}
}

// With returns a copy of p that also grants perm. Unknown permissions leave
// the set unchanged.
func (p Permissions) With(perm Permission) Permissions {
	switch perm {
	case PermManageListings:
		p.ManageListings = true
	case PermManageTeam:
		p.ManageTeam = true
	case PermViewAnalytics:
		p.ViewAnalytics = true
	case PermManageBookings:
		p.ManageBookings = true
	case PermRespondToLeads:
		p.RespondToLeads = true
	case PermManageFinancials:
		p.ManageFinancials = true
	case PermManageSettings:
		p.ManageSettings = true
	case PermExportData:
		p.ExportData = true
	}
	return p
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(normalize(s))
	switch p {
	case PermManageListings, PermManageTeam, PermViewAnalytics, PermManageBookings,
		PermRespondToLeads, PermManageFinancials, PermManageSettings, PermExportData:
		return p, nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// PartnerSeat returns the caller's eligible seat in partnerID. A user holds
// at most one seat per partner.
func PartnerSeat(memberships []Membership, partnerID string) (Membership, bool) {
	for _, m := range Eligible(memberships) {
		if m.PartnerID == partnerID {
			return m, true
		}
	}
	return Membership{}, false
}

// IsPartnerOwner reports whether the eligible seat in partnerID is an owner
// seat. Ownership of any other partner does not count.
func IsPartnerOwner(memberships []Membership, partnerID string) bool {
	m, ok := PartnerSeat(memberships, partnerID)
	return ok && m.StaffRole == StaffOwner
}

// HasPartnerPermission reports whether the eligible seat in partnerID grants
// perm. Owners hold every permission of their organization.
func HasPartnerPermission(memberships []Membership, partnerID string, perm Permission) bool {
	m, ok := PartnerSeat(memberships, partnerID)
	return ok && (m.StaffRole == StaffOwner || m.Permissions.Has(perm))
}
