package login

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/coursedesk/console/internal/session"
)

// Logout handles POST /logout: it clears the session cookie and sends the
// user to the public home. A request whose Origin header names a different
// host is refused with 403 before any state changes, to stop cross-site
// forced logouts.
func Logout(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Host != r.Host {
			log.Warn().Str("origin", origin).Str("host", r.Host).Msg("Logout refused, origin mismatch")
			http.Error(w, "invalid origin", http.StatusForbidden)
			return
		}
	}

	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutRedirect handles GET /logout so someone can hit the URL directly.
// It skips the origin check, which leaves a residual cross-site-logout risk;
// the check-then-clear POST path above is the primary one.
func LogoutRedirect(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
