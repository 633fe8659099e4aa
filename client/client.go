// Package client talks to a running blog service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

var ErrNotFound = errors.New("post not found")

type Client struct {
	http.Client
	Addr string
}

// Post is a post as served by the blog API.
type Post struct {
	model.BlogPost

	URL           string `json:"url,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// StatusError is returned for unexpected response codes.
type StatusError struct {
	Code   int    `json:"-"`
	Status string `json:"status"`
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("blog: %d %s", e.Code, e.Status)
	}

	return fmt.Sprintf("blog: unexpected status %d", e.Code)
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Addr+"/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// Posts lists the most recent posts. A non-positive limit leaves the choice
// to the server.
func (c *Client) Posts(ctx context.Context, limit int) ([]Post, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var posts []Post
	if err := c.getJSON(ctx, "/posts", q, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// SearchPosts lists recent posts tagged with tag.
func (c *Client) SearchPosts(ctx context.Context, tag string, limit int) ([]Post, error) {
	q := url.Values{"tag": {tag}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var posts []Post
	if err := c.getJSON(ctx, "/posts/search", q, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// Post fetches one post by slug. It returns ErrNotFound for unknown slugs.
func (c *Client) Post(ctx context.Context, slug string) (Post, error) {
	var p Post
	if err := c.getJSON(ctx, "/posts/"+url.PathEscape(slug), nil, &p); err != nil {
		return Post{}, err
	}

	return p, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.Addr + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		serr := &StatusError{Code: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(serr)

		return serr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
