package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Course is a course resource as returned by the backend.
type Course struct {
	ID          int    `json:"id"`
	IRI         string `json:"@id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	IsPublished bool   `json:"isPublished"`
}

// Collection is a JSON-LD collection body; Member holds the items.
type Collection[T any] struct {
	Member []T `json:"member"`
}

// CreatedResource is the interesting part of a create response.
type CreatedResource struct {
	ID  int    `json:"id"`
	IRI string `json:"@id"`
}

type CoursePayload struct {
	Title       string `json:"title"`
	Level       string `json:"level"`
	IsPublished bool   `json:"isPublished"`
}

// CoursePatch is a merge patch; nil fields are left untouched.
type CoursePatch struct {
	Title       *string `json:"title,omitempty"`
	Level       *string `json:"level,omitempty"`
	IsPublished *bool   `json:"isPublished,omitempty"`
}

type ChapterPayload struct {
	Title  string `json:"title"`
	Course string `json:"course"` // parent course IRI
}

type ChapterPatch struct {
	Title *string `json:"title,omitempty"`
}

type LessonPayload struct {
	Title   string `json:"title"`
	Chapter string `json:"chapter"` // parent chapter IRI
}

type LessonPatch struct {
	Title *string `json:"title,omitempty"`
}

// Ref names a resource either by numeric id or by its full IRI, mirroring
// what backend responses hand out.
type Ref struct {
	id  int
	iri string
}

func ID(id int) Ref {
	return Ref{id: id}
}

func IRI(iri string) Ref {
	return Ref{iri: iri}
}

func (r Ref) path(collection string) string {
	if r.iri != "" {
		return r.iri
	}
	return fmt.Sprintf("/api/%s/%d", collection, r.id)
}

// ListCourses fetches courses, optionally filtered (e.g. isPublished=true,
// pagination=false).
func (c *Client) ListCourses(ctx context.Context, cookies []*http.Cookie, query url.Values) ([]Course, error) {
	path := "/api/courses"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	collection, err := Request[Collection[Course]](ctx, c, http.MethodGet, path, &RequestOptions{Cookies: cookies})
	if err != nil {
		return nil, err
	}

	return collection.Member, nil
}

func (c *Client) CreateCourse(ctx context.Context, cookies []*http.Cookie, payload CoursePayload) (CreatedResource, error) {
	return Request[CreatedResource](ctx, c, http.MethodPost, "/api/courses", &RequestOptions{
		Body:        payload,
		ContentType: ContentTypeLD,
		Cookies:     cookies,
	})
}

func (c *Client) UpdateCourse(ctx context.Context, cookies []*http.Cookie, id int, patch CoursePatch) error {
	_, err := Request[struct{}](ctx, c, http.MethodPatch, fmt.Sprintf("/api/courses/%d", id), &RequestOptions{
		Body:        patch,
		ContentType: ContentTypeMergePatch,
		Cookies:     cookies,
	})
	return err
}

// DeleteCourse removes a course by id or IRI; the backend answers 204.
func (c *Client) DeleteCourse(ctx context.Context, cookies []*http.Cookie, ref Ref) error {
	_, err := Request[struct{}](ctx, c, http.MethodDelete, ref.path("courses"), &RequestOptions{Cookies: cookies})
	return err
}

func (c *Client) CreateChapter(ctx context.Context, cookies []*http.Cookie, payload ChapterPayload) (CreatedResource, error) {
	return Request[CreatedResource](ctx, c, http.MethodPost, "/api/chapters", &RequestOptions{
		Body:        payload,
		ContentType: ContentTypeLD,
		Cookies:     cookies,
	})
}

func (c *Client) UpdateChapter(ctx context.Context, cookies []*http.Cookie, id int, patch ChapterPatch) error {
	_, err := Request[struct{}](ctx, c, http.MethodPatch, fmt.Sprintf("/api/chapters/%d", id), &RequestOptions{
		Body:        patch,
		ContentType: ContentTypeMergePatch,
		Cookies:     cookies,
	})
	return err
}

func (c *Client) DeleteChapter(ctx context.Context, cookies []*http.Cookie, ref Ref) error {
	_, err := Request[struct{}](ctx, c, http.MethodDelete, ref.path("chapters"), &RequestOptions{Cookies: cookies})
	return err
}

func (c *Client) CreateLesson(ctx context.Context, cookies []*http.Cookie, payload LessonPayload) (CreatedResource, error) {
	return Request[CreatedResource](ctx, c, http.MethodPost, "/api/lessons", &RequestOptions{
		Body:        payload,
		ContentType: ContentTypeLD,
		Cookies:     cookies,
	})
}

func (c *Client) UpdateLesson(ctx context.Context, cookies []*http.Cookie, id int, patch LessonPatch) error {
	_, err := Request[struct{}](ctx, c, http.MethodPatch, fmt.Sprintf("/api/lessons/%d", id), &RequestOptions{
		Body:        patch,
		ContentType: ContentTypeMergePatch,
		Cookies:     cookies,
	})
	return err
}

func (c *Client) DeleteLesson(ctx context.Context, cookies []*http.Cookie, ref Ref) error {
	_, err := Request[struct{}](ctx, c, http.MethodDelete, ref.path("lessons"), &RequestOptions{Cookies: cookies})
	return err
}
