package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/identity"
)

// SubjectLoader fetches the user snapshot and active seats for a session.
type SubjectLoader interface {
	Load(ctx context.Context, userID uuid.UUID) (*identity.Subject, error)
}

// Authenticator attaches the signed-in subject to the request context.
// Requests without a usable session carry on without a subject, which every
// guard treats as unauthenticated.
type Authenticator struct {
	secret     []byte
	cookieName string
	loader     SubjectLoader
}

func NewAuthenticator(secret, cookieName string, loader SubjectLoader) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		cookieName: cookieName,
		loader:     loader,
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r, a.cookieName)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		_, userID, err := ParseToken(a.secret, tokenStr)
		if err != nil {
			slog.Debug("rejected session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		subject, err := a.loader.Load(r.Context(), userID)
		if err != nil {
			slog.Warn("failed to load session subject", "user_id", userID, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithSubject(r.Context(), subject)))
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body map[string]string) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
