package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/access"
	"github.com/alifh/alifh/internal/models"
)

// Source is where identity snapshots come from.
type Source interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActiveMemberships(ctx context.Context, userID uuid.UUID) ([]models.PartnerStaff, error)
}

// Subject is the signed-in user for one request together with the resolver
// inputs derived from it.
type Subject struct {
	User        *models.User
	Seats       []models.PartnerStaff
	Access      *access.User
	Memberships []access.Membership
}

// Loader builds a Subject from the store on every call. Nothing is cached,
// so role, status and seat changes apply on the next request.
type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

func (l *Loader) Load(ctx context.Context, userID uuid.UUID) (*Subject, error) {
	u, err := l.src.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	seats, err := l.src.ListActiveMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	return &Subject{
		User:        u,
		Seats:       seats,
		Access:      Snapshot(u),
		Memberships: ToAccess(seats),
	}, nil
}

func Snapshot(u *models.User) *access.User {
	if u == nil {
		return nil
	}
	return &access.User{
		ID:            u.ID.String(),
		PlatformRole:  access.ParsePlatformRole(u.PlatformRole),
		Status:        access.ParseAccountStatus(u.Status),
		EmailVerified: u.EmailVerified,
	}
}

// ToAccess converts seats and drops any whose membership or partner is not
// active. Unparseable statuses are dropped too.
func ToAccess(seats []models.PartnerStaff) []access.Membership {
	out := make([]access.Membership, 0, len(seats))
	for _, s := range seats {
		status, ok := access.ParseMembershipStatus(s.Status)
		if !ok {
			continue
		}
		partnerStatus, ok := access.ParsePartnerStatus(s.PartnerStatus)
		if !ok {
			continue
		}
		out = append(out, access.Membership{
			PartnerID:     s.PartnerID.String(),
			PartnerStatus: partnerStatus,
			StaffRole:     access.ParseStaffRole(s.Role),
			Status:        status,
			Permissions:   access.Permissions(s.Permissions),
		})
	}
	return access.Eligible(out)
}
