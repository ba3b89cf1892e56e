package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// signTestToken builds a real HS256-signed JWT. The signing key is irrelevant
// to the decoder, which never verifies signatures.
func signTestToken(t *testing.T, email string, roles []string) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte("test-secret-nobody-checks"))
	require.NoError(t, err)

	return signed
}

func TestDecodeToken(t *testing.T) {
	token := signTestToken(t, "admin@example.com", []string{"ROLE_ADMIN", "ROLE_USER"})

	id, err := DecodeToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", id.Email)
	require.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, id.Roles)
	require.NotNil(t, id.IssuedAt)
	require.NotNil(t, id.ExpiresAt)
	require.True(t, id.HasRole("ROLE_ADMIN"))
	require.False(t, id.HasRole("ROLE_SUPER_ADMIN"))
}

func TestDecodeToken_garbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c.d", "!!!.???.***"} {
		_, err := DecodeToken(token)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestMiddleware_noCookie(t *testing.T) {
	var seen *Identity
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, seen)
}

func TestMiddleware_malformedCookieDegradesToAnonymous(t *testing.T) {
	called := false
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Nil(t, IdentityFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage-token"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	// the request proceeds; a bad token is never an error visible to the caller
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_validCookie(t *testing.T) {
	var seen *Identity
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: signTestToken(t, "admin@example.com", []string{"ROLE_ADMIN"})})

	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, seen)
	require.Equal(t, "admin@example.com", seen.Email)
	require.True(t, seen.HasRole("ROLE_ADMIN"))
}

func TestSetCookie_attributes(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "abc", false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	require.Equal(t, CookieName, c.Name)
	require.Equal(t, "abc", c.Value)
	require.Equal(t, "/", c.Path)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, int(TTL.Seconds()), c.MaxAge)
}

func TestSetCookie_devDropsSecure(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "abc", true)

	require.False(t, rec.Result().Cookies()[0].Secure)
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)
	require.Equal(t, "/", cookies[0].Path)
	require.Negative(t, cookies[0].MaxAge)
}
