package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/access"
)

type contextKey string

const subjectKey contextKey = "subject"

func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectKey, s)
}

func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectKey).(*Subject)
	return s
}

// UserIDFromContext returns uuid.Nil for unauthenticated requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if s := SubjectFromContext(ctx); s != nil && s.User != nil {
		return s.User.ID
	}
	return uuid.Nil
}

// AccessFromContext returns the resolver inputs for the request. Both are nil
// when no subject was loaded.
func AccessFromContext(ctx context.Context) (*access.User, []access.Membership) {
	s := SubjectFromContext(ctx)
	if s == nil {
		return nil, nil
	}
	return s.Access, s.Memberships
}
