package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursedesk/console/internal/api"
	"github.com/coursedesk/console/internal/session"
)

func adminRequest(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	return r.WithContext(session.WithIdentity(r.Context(), &session.Identity{
		Email: "admin@example.com",
		Roles: []string{"ROLE_ADMIN"},
	}))
}

func TestHome_anonymousShowsSignIn(t *testing.T) {
	p := New(api.New("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	p.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/login")
}

func TestHome_authenticatedShowsEmail(t *testing.T) {
	p := New(api.New("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	p.Home(rec, adminRequest("/"))

	require.Contains(t, rec.Body.String(), "admin@example.com")
	require.Contains(t, rec.Body.String(), "/logout")
}

func TestDashboard_countsFromFanOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "false", r.URL.Query().Get("pagination"))

		switch r.URL.Query().Get("isPublished") {
		case "true":
			_, _ = w.Write([]byte(`{"member":[{"id":1},{"id":2}]}`))
		case "false":
			_, _ = w.Write([]byte(`{"member":[{"id":3}]}`))
		default:
			_, _ = w.Write([]byte(`{"member":[{"id":1},{"id":2},{"id":3}]}`))
		}
	}))
	defer srv.Close()

	p := New(api.New(srv.URL))

	rec := httptest.NewRecorder()
	p.Dashboard(rec, adminRequest("/admin"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Total courses: 3")
	require.Contains(t, body, "Published: 2")
	require.Contains(t, body, "Unpublished: 1")
}

func TestDashboard_backendErrorRendersErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail": "maintenance window"}`))
	}))
	defer srv.Close()

	p := New(api.New(srv.URL))

	rec := httptest.NewRecorder()
	p.Dashboard(rec, adminRequest("/admin"))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "maintenance window")
}

func TestCourses_listsMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"member":[
			{"id":1,"title":"Go basics","level":"beginner","isPublished":true},
			{"id":2,"title":"Concurrency patterns","level":"advanced","isPublished":false}
		]}`))
	}))
	defer srv.Close()

	p := New(api.New(srv.URL))

	rec := httptest.NewRecorder()
	p.Courses(rec, adminRequest("/admin/courses"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Go basics")
	require.Contains(t, body, "Concurrency patterns")
	require.Equal(t, 1, strings.Count(body, "<td>yes</td>"))
}

func TestCourses_emptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"member":[]}`))
	}))
	defer srv.Close()

	p := New(api.New(srv.URL))

	rec := httptest.NewRecorder()
	p.Courses(rec, adminRequest("/admin/courses"))

	require.Contains(t, rec.Body.String(), "No courses yet.")
}
