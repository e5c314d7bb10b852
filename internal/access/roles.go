package access

import "strings"

// PlatformRole is a user's privilege level within the platform itself,
// independent of any partner affiliation.
type PlatformRole string

const (
	RoleUser       PlatformRole = "user"
	RoleStaff      PlatformRole = "staff"
	RoleAdmin      PlatformRole = "admin"
	RoleSuperAdmin PlatformRole = "super-admin"
)

// ParsePlatformRole maps a stored role string onto the closed set. Anything
// unrecognised, including the empty string, becomes RoleUser.
func ParsePlatformRole(s string) PlatformRole {
	r, _ := LookupPlatformRole(s)
	return r
}

// LookupPlatformRole is ParsePlatformRole for input that must name a role.
// ok is false for anything unrecognised.
func LookupPlatformRole(s string) (r PlatformRole, ok bool) {
	switch normalize(s) {
	case "user":
		return RoleUser, true
	case "staff":
		return RoleStaff, true
	case "admin":
		return RoleAdmin, true
	case "super-admin", "superadmin":
		return RoleSuperAdmin, true
	default:
		return RoleUser, false
	}
}

// IsAdmin reports whether the role carries the admin portal badge.
// Staff share the admin surface but are not admins.
func (r PlatformRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UsesAdminSurface reports whether the role lands on the admin dashboard.
func (r PlatformRole) UsesAdminSurface() bool {
	return r.IsAdmin() || r == RoleStaff
}

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusPending   AccountStatus = "pending"
	StatusSuspended AccountStatus = "suspended"
	StatusInactive  AccountStatus = "inactive"
	StatusUnknown   AccountStatus = "unknown"
)

// ParseAccountStatus never yields StatusActive for a value that is not
// literally "active".
func ParseAccountStatus(s string) AccountStatus {
	switch normalize(s) {
	case "active":
		return StatusActive
	case "pending":
		return StatusPending
	case "suspended":
		return StatusSuspended
	case "inactive":
		return StatusInactive
	default:
		return StatusUnknown
	}
}

// StaffRole is the role a user holds inside one partner organization.
type StaffRole string

const (
	StaffOwner   StaffRole = "owner"
	StaffAdmin   StaffRole = "admin"
	StaffSales   StaffRole = "sales"
	StaffStaff   StaffRole = "staff"
	StaffViewer  StaffRole = "viewer"
	StaffUnknown StaffRole = "unknown"
)

func ParseStaffRole(s string) StaffRole {
	switch normalize(s) {
	case "owner":
		return StaffOwner
	case "admin":
		return StaffAdmin
	case "sales":
		return StaffSales
	case "staff":
		return StaffStaff
	case "viewer":
		return StaffViewer
	default:
		return StaffUnknown
	}
}

func (r StaffRole) known() bool {
	switch r {
	case StaffOwner, StaffAdmin, StaffSales, StaffStaff, StaffViewer:
		return true
	}
	return false
}

// MembershipStatus is the state of a staff seat.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipInvited   MembershipStatus = "invited"
	MembershipSuspended MembershipStatus = "suspended"
	MembershipLeft      MembershipStatus = "left"
)

func ParseMembershipStatus(s string) (MembershipStatus, bool) {
	switch normalize(s) {
	case "active":
		return MembershipActive, true
	case "invited":
		return MembershipInvited, true
	case "suspended":
		return MembershipSuspended, true
	case "left":
		return MembershipLeft, true
	}
	return "", false
}

// PartnerStatus is the state of a partner organization.
type PartnerStatus string

const (
	PartnerPending   PartnerStatus = "pending"
	PartnerActive    PartnerStatus = "active"
	PartnerSuspended PartnerStatus = "suspended"
	PartnerCancelled PartnerStatus = "cancelled"
)

// ParsePartnerStatus accepts the legacy "draft" and "banned" spellings.
func ParsePartnerStatus(s string) (PartnerStatus, bool) {
	switch normalize(s) {
	case "pending", "draft":
		return PartnerPending, true
	case "active":
		return PartnerActive, true
	case "suspended":
		return PartnerSuspended, true
	case "cancelled", "canceled", "banned":
		return PartnerCancelled, true
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
