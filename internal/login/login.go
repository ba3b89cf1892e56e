// Package login implements the login form and the credential exchange with
// the backend identity endpoint, plus session termination.
package login

import (
	_ "embed"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/coursedesk/console/internal/api"
	"github.com/coursedesk/console/internal/authz"
	"github.com/coursedesk/console/internal/redirect"
	"github.com/coursedesk/console/internal/session"
	"github.com/coursedesk/console/internal/telemetry"
)

//go:embed login.html
var formHTML string

var formTmpl = template.Must(template.New("login").Parse(formHTML))

// ErrInvalidCredentials means the backend rejected the login. It is
// deliberately silent on whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports missing or malformed form input; the form is
// re-rendered with the message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Handler struct {
	api *api.Client
	dev bool
}

func NewHandler(client *api.Client, dev bool) *Handler {
	return &Handler{api: client, dev: dev}
}

// formData is what the login template renders. The password is never echoed.
type formData struct {
	Error string
	Email string
	Next  string
}

// Page renders the login form. Visitors who already carry an identity are
// redirected straight to their destination.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	next := redirect.SanitizeNext(r.URL.Query().Get("next"))

	if id := session.IdentityFromContext(r.Context()); id != nil {
		if next == "" {
			next = authz.DefaultLanding(id)
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	h.render(w, http.StatusOK, formData{Next: next})
}

// Action handles the login form submission: validate, exchange credentials
// with the backend, mint the session cookie, redirect.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, formData{Error: "Invalid form submission."})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	rawNext := r.PostFormValue("next")
	if rawNext == "" {
		rawNext = r.URL.Query().Get("next")
	}
	next := redirect.SanitizeNext(rawNext)

	if email == "" || password == "" {
		verr := &ValidationError{Message: "Email and password are required."}
		h.render(w, http.StatusBadRequest, formData{Error: verr.Message, Email: email, Next: next})
		return
	}

	telemetry.GetMetrics().LoginAttemptsTotal.Add(r.Context(), 1)

	token, err := h.exchange(r.Context(), r.Cookies(), email, password)
	if err != nil {
		telemetry.GetMetrics().LoginFailuresTotal.Add(r.Context(), 1)

		if errors.Is(err, ErrInvalidCredentials) {
			log.Info().Str("user", email).Msg("Login rejected by backend")
			h.render(w, http.StatusUnauthorized, formData{Error: "Invalid credentials.", Email: email, Next: next})
			return
		}

		log.Error().Err(err).Msg("Credential exchange failed")
		h.render(w, http.StatusBadGateway, formData{Error: "Login is temporarily unavailable. Please try again.", Email: email, Next: next})
		return
	}

	var id *session.Identity
	if token != "" {
		session.SetCookie(w, token, h.dev)
		// Shape-decode only, to pick the landing page; trust in the token is
		// the backend's concern.
		if id, err = session.DecodeToken(token); err != nil {
			log.Warn().Err(err).Msg("Backend returned an undecodable token")
			id = nil
		}
	}

	log.Info().Str("user", email).Msg("User logged in")

	if next == "" {
		next = authz.DefaultLanding(id)
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// exchange forwards the credentials to the backend and returns the session
// token. An empty token with a nil error means the backend answered success
// without a parseable token — it may have established its own cookie channel,
// so that is not treated as a failure.
func (h *Handler) exchange(ctx context.Context, cookies []*http.Cookie, email, password string) (string, error) {
	resp, err := api.Request[loginResponse](ctx, h.api, http.MethodPost, "/api/login", &api.RequestOptions{
		Body:    loginRequest{Email: email, Password: password},
		Cookies: cookies,
	})
	if err != nil {
		var re *api.RequestError
		if errors.As(err, &re) {
			return "", ErrInvalidCredentials
		}

		var de *api.DecodeError
		if errors.As(err, &de) {
			log.Debug().Err(de).Msg("Login response body not parseable, proceeding without a token")
			return "", nil
		}

		return "", err
	}

	return resp.Token, nil
}

func (h *Handler) render(w http.ResponseWriter, status int, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render login form")
	}
}
