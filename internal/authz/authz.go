package authz

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/coursedesk/console/internal/session"
	"github.com/coursedesk/console/internal/telemetry"
)

// RoleAdmin gates the administrative route subtree. Role identifiers follow
// the backend's convention.
const RoleAdmin = "ROLE_ADMIN"

const (
	loginPath = "/login"
	homePath  = "/"
)

// DefaultLanding returns the landing page for an identity when no explicit
// redirect target survives sanitization: the admin home for admins, the
// public home for everyone else.
func DefaultLanding(id *session.Identity) string {
	if id != nil && id.HasRole(RoleAdmin) {
		return "/admin"
	}
	return homePath
}

// RequireRole guards a route subtree. Anonymous visitors are bounced to the
// login page with the requested path as the "next" target; authenticated
// visitors missing the role are sent to the public home instead — never back
// to login, which would loop for a logged-in but unauthorized user.
//
// Guards compose by nesting: an outer guard runs before an inner one and the
// first redirect wins.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := session.IdentityFromContext(r.Context())
			if id == nil {
				log.Debug().Str("path", r.URL.Path).Msg("Anonymous request to guarded route, redirecting to login")
				telemetry.GetMetrics().GuardRedirectsTotal.Add(r.Context(), 1)
				http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}

			if !id.HasRole(role) {
				log.Debug().Str("user", id.Email).Str("path", r.URL.Path).Str("role", role).Msg("Missing role, redirecting to home")
				telemetry.GetMetrics().GuardRedirectsTotal.Add(r.Context(), 1)
				http.Redirect(w, r, homePath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
