package access

import "net/url"

// RedirectTargets names the page a denied visitor is sent to.
type RedirectTargets struct {
	SignIn          string
	PendingApproval string
	Suspended       string
	Inactive        string
	VerifyEmail     string
	Unauthorized    string
}

func DefaultRedirectTargets() RedirectTargets {
	return RedirectTargets{
		SignIn:          "/auth/sign-in",
		PendingApproval: "/auth/pending-approval",
		Suspended:       "/auth/suspended",
		Inactive:        "/auth/account-inactive",
		VerifyEmail:     "/auth/verify-email",
		Unauthorized:    "/unauthorized",
	}
}

// For returns where to send u after d was denied for requested. It returns
// "" for an allowed decision. Sign-in redirects carry the requested path as
// callbackUrl.
func (t RedirectTargets) For(d Decision, u *User, requested string) string {
	if d.Allowed {
		return ""
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		if requested == "" {
			return t.SignIn
		}
		return t.SignIn + "?" + url.Values{"callbackUrl": {requested}}.Encode()
	case ReasonAccountNotActive:
		if u == nil {
			return t.SignIn
		}
		switch u.Status {
		case StatusPending:
			return t.PendingApproval
		case StatusSuspended:
			return t.Suspended
		default:
			return t.Inactive
		}
	case ReasonEmailNotVerified:
		return t.VerifyEmail
	default:
		return t.Unauthorized
	}
}
