// Package web renders the console's pages. The pages are deliberately plain —
// the interesting parts are what they consume: the identity resolved by the
// session middleware and the backend data fetched through the api client.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coursedesk/console/internal/api"
	"github.com/coursedesk/console/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type Pages struct {
	api *api.Client
}

func New(client *api.Client) *Pages {
	return &Pages{api: client}
}

type homeData struct {
	Identity *session.Identity
}

// Home is the public landing page.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "home.html", homeData{
		Identity: session.IdentityFromContext(r.Context()),
	})
}

type dashboardData struct {
	Identity         *session.Identity
	TotalCourses     int
	PublishedCount   int
	UnpublishedCount int
}

// Dashboard shows course counts. The three backend queries are independent,
// so they run as a fan-out and the page waits for all of them.
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	filters := []url.Values{
		{"pagination": {"false"}},
		{"pagination": {"false"}, "isPublished": {"true"}},
		{"pagination": {"false"}, "isPublished": {"false"}},
	}

	counts := make([]int, len(filters))
	errs := make([]error, len(filters))

	var wg sync.WaitGroup
	for i, query := range filters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			courses, err := p.api.ListCourses(r.Context(), r.Cookies(), query)
			counts[i] = len(courses)
			errs[i] = err
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		p.renderError(w, r, err)
		return
	}

	p.render(w, http.StatusOK, "dashboard.html", dashboardData{
		Identity:         session.IdentityFromContext(r.Context()),
		TotalCourses:     counts[0],
		PublishedCount:   counts[1],
		UnpublishedCount: counts[2],
	})
}

type coursesData struct {
	Identity *session.Identity
	Courses  []api.Course
}

// Courses lists all courses.
func (p *Pages) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := p.api.ListCourses(r.Context(), r.Cookies(), nil)
	if err != nil {
		p.renderError(w, r, err)
		return
	}

	p.render(w, http.StatusOK, "courses.html", coursesData{
		Identity: session.IdentityFromContext(r.Context()),
		Courses:  courses,
	})
}

type errorData struct {
	Message string
}

func (p *Pages) renderError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Backend call failed")

	message := "The course service did not answer. Please try again."
	var re *api.RequestError
	if errors.As(err, &re) {
		message = re.Message
	}

	p.render(w, http.StatusBadGateway, "error.html", errorData{Message: message})
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
	}
}
