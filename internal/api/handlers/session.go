package handlers

import (
	"net/http"
	"time"

	"github.com/alifh/alifh/internal/auth"
	"github.com/alifh/alifh/internal/identity"
)

// SessionHandler reissues session tokens for signed-in users.
type SessionHandler struct {
	secret []byte
	cookie string
	ttl    time.Duration
	secure bool
}

func NewSessionHandler(secret, cookie string, ttl time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{secret: []byte(secret), cookie: cookie, ttl: ttl, secure: secure}
}

// Refresh signs a fresh token for the current subject and sets it as the
// session cookie.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s := identity.SubjectFromContext(r.Context())
	if s == nil || s.User == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}

	expires := time.Now().Add(h.ttl).UTC()
	token, err := auth.NewToken(h.secret, s.User.ID, s.User.Email, h.ttl)
	if err != nil {
		internalError(w, r, "issue session token", err)
		return
	}

	if h.cookie != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			MaxAge:   int(h.ttl.Seconds()),
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"token": token, "expires_at": expires})
}
