package partner

import (
	"slices"

	"github.com/alifh/alifh/internal/access"
)

var partnerTransitions = map[access.PartnerStatus][]access.PartnerStatus{
	access.PartnerPending:   {access.PartnerActive, access.PartnerCancelled},
	access.PartnerActive:    {access.PartnerSuspended, access.PartnerCancelled},
	access.PartnerSuspended: {access.PartnerActive, access.PartnerCancelled},
}

var membershipTransitions = map[access.MembershipStatus][]access.MembershipStatus{
	access.MembershipInvited:   {access.MembershipActive, access.MembershipLeft},
	access.MembershipActive:    {access.MembershipSuspended, access.MembershipLeft},
	access.MembershipSuspended: {access.MembershipActive, access.MembershipLeft},
}

// CanTransitionPartner reports whether an organization may move from one
// status to another. Cancelled is terminal.
func CanTransitionPartner(from, to access.PartnerStatus) bool {
	return slices.Contains(partnerTransitions[from], to)
}

// CanTransitionMembership reports whether a seat may move from one status to
// another. Left is terminal; seats are never deleted.
func CanTransitionMembership(from, to access.MembershipStatus) bool {
	return slices.Contains(membershipTransitions[from], to)
}

