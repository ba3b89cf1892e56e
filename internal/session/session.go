// Package session derives a per-request identity from the session cookie.
//
// The cookie value is a JWT minted by the backend identity provider. This
// package only shape-decodes it into typed claims — signature verification is
// the backend's job, and the cookie is trusted to have been established
// upstream. Decoding here must never be mistaken for trust.
package session

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/coursedesk/console/internal/telemetry"
)

// CookieName must match across set (login), read (middleware) and delete
// (logout), or identity resolution silently degrades to anonymous.
const CookieName = "jwt"

// TTL is the session cookie lifetime.
const TTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

type contextKey int

const identityContextKey contextKey = iota

// Identity is the decoded session payload for one request. It is produced
// only by the middleware and lives exactly as long as the request.
type Identity struct {
	Email     string
	Roles     []string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

type tokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// DecodeToken shape-decodes a session token into an Identity without
// verifying its signature.
func DecodeToken(token string) (*Identity, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	id := &Identity{
		Email: claims.Email,
		Roles: claims.Roles,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = &claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = &claims.ExpiresAt.Time
	}

	return id, nil
}

// IdentityFromContext returns the identity attached by Middleware, or nil for
// an anonymous request.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}

// WithIdentity attaches an identity to the context. Exposed for handler tests.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// Middleware reads the session cookie and attaches the decoded identity to
// the request context. It never rejects a request: a missing cookie means
// anonymous, and a cookie that fails to decode is logged and treated as
// anonymous too.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := DecodeToken(cookie.Value)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode session cookie, continuing as anonymous")
				telemetry.GetMetrics().TokenDecodeFailuresTotal.Add(r.Context(), 1)
				next.ServeHTTP(w, r)
				return
			}

			log.Debug().Str("user", id.Email).Str("path", r.URL.Path).Msg("Session decoded")
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// SetCookie writes the session cookie carrying the given token. In dev mode
// the Secure attribute is dropped so plain-HTTP local setups still work.
func SetCookie(w http.ResponseWriter, token string, dev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !dev,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TTL.Seconds()),
	})
}

// ClearCookie deletes the session cookie. Name and Path must match SetCookie
// or the browser keeps the old cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
