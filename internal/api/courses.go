package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Courses lists every available course.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	raw, err := c.fetch(ctx, http.MethodGet, "/cours", nil)
	if err != nil {
		return nil, err
	}
	return normalized("GET /cours", raw, NormalizeCourses)
}

// MyCourses lists the courses the trainee follows.
func (c *Client) MyCourses(ctx context.Context) ([]Course, error) {
	raw, err := c.fetch(ctx, http.MethodGet, "/jsp/me/cours", nil)
	if err != nil {
		return nil, err
	}
	return normalized("GET /jsp/me/cours", raw, NormalizeCourses)
}

// FollowCourse subscribes the trainee to a course.
func (c *Client) FollowCourse(ctx context.Context, id int64) error {
	return c.Request(ctx, http.MethodPost, fmt.Sprintf("/cours/%d/suivre", id), nil, nil)
}

// UnfollowCourse unsubscribes the trainee from a course.
func (c *Client) UnfollowCourse(ctx context.Context, id int64) error {
	return c.Request(ctx, http.MethodDelete, fmt.Sprintf("/cours/%d/suivre", id), nil, nil)
}

// DownloadCourse fetches the course file.
func (c *Client) DownloadCourse(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/cours/%d/download", id), nil, &data,
		WithResponseKind(KindBinary))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DownloadURL joins a route onto the public download base. The base may or
// may not already end with "/api".
func DownloadURL(base, relativePath string) string {
	base = strings.TrimRight(base, "/")
	p := CleanPath(relativePath)
	if strings.HasSuffix(base, "/api") {
		return base + p
	}
	return base + "/api" + p
}

// CourseDownloadURL returns the public URL of a course file.
func CourseDownloadURL(base string, id int64) string {
	return DownloadURL(base, fmt.Sprintf("/cours/%d/download", id))
}
