// Package hashnode fetches posts of a single publication from the Hashnode
// GraphQL API.
//
// The client is fail-soft: transport errors, non-2xx responses and GraphQL
// errors are logged and counted, then reported to callers as an empty list or
// an absent post. Callers never receive an error.
package hashnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

const (
	DefaultEndpoint = "https://gql.hashnode.com/"
	DefaultHost     = "blog.overflowbyte.cloud"
	DefaultTimeout  = 10 * time.Second

	// MaxPageSize is the largest page requested from the upstream.
	MaxPageSize = 20
	// MaxPages bounds the page fetches of one ListPosts call regardless of
	// limit or of what the upstream claims about further pages.
	MaxPages = 5
	// DefaultLimit applies when ListPosts is called with a non-positive limit.
	DefaultLimit = 10

	maxResponseBytes = 8 << 20
)

type Client struct {
	endpoint   string
	host       string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	metrics    *metrics.Client
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHost sets the publication host, e.g. "blog.example.com".
func WithHost(host string) Option {
	return func(c *Client) {
		if host != "" {
			c.host = host
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		host:       DefaultHost,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Host returns the publication host the client reads from.
func (c *Client) Host() string {
	return c.host
}

// ListPosts returns up to limit of the most recent posts, in upstream order.
// Pages are requested until the upstream reports no next page, limit posts
// are collected, or MaxPages fetches were made. A failing page ends the loop
// and the posts gathered so far are returned. Content is never populated.
func (c *Client) ListPosts(ctx context.Context, limit int) []model.BlogPost {
	posts, _ := c.ListPostsComplete(ctx, limit)

	return posts
}

// ListPostsComplete is ListPosts that also reports whether the listing ran to
// its end. It is false when a page fetch failed and the result holds only the
// pages before the failure.
func (c *Client) ListPostsComplete(ctx context.Context, limit int) ([]model.BlogPost, bool) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	posts := make([]model.BlogPost, 0, min(limit, MaxPageSize*MaxPages))
	after := ""
	complete := true

	for page := 1; page <= MaxPages && len(posts) < limit; page++ {
		vars := map[string]any{
			"host":  c.host,
			"first": min(MaxPageSize, limit-len(posts)),
		}
		if after != "" {
			vars["after"] = after
		}

		var data postsData
		if err := c.query(ctx, "ListPosts", listPostsQuery, vars, &data); err != nil {
			c.logger.Warnw("fetch page failed",
				"op", "ListPosts", "host", c.host, "page", page, "kind", errorKind(err), "error", err)
			complete = false

			break
		}
		if data.Publication == nil {
			c.logger.Warnw("publication not found", "op", "ListPosts", "host", c.host, "page", page)
			complete = false

			break
		}

		for _, edge := range data.Publication.Posts.Edges {
			p := edge.Node.toModel()
			p.Content = ""
			posts = append(posts, p)
		}

		info := data.Publication.Posts.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		after = info.EndCursor
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}

	return posts, complete
}

// GetPost returns the post with the given slug including its HTML content.
// The second result is false when the post does not exist or could not be
// fetched.
func (c *Client) GetPost(ctx context.Context, slug string) (model.BlogPost, bool) {
	if slug == "" {
		return model.BlogPost{}, false
	}

	vars := map[string]any{
		"host": c.host,
		"slug": slug,
	}

	var data postData
	if err := c.query(ctx, "GetPost", getPostQuery, vars, &data); err != nil {
		c.logger.Warnw("fetch post failed",
			"op", "GetPost", "host", c.host, "slug", slug, "kind", errorKind(err), "error", err)

		return model.BlogPost{}, false
	}
	if data.Publication == nil || data.Publication.Post == nil {
		c.logger.Debugw("post not found", "op", "GetPost", "host", c.host, "slug", slug)

		return model.BlogPost{}, false
	}

	return data.Publication.Post.toModel(), true
}

// query performs one GraphQL round trip and decodes "data" into out.
func (c *Client) query(ctx context.Context, op, query string, vars map[string]any, out any) error {
	start := time.Now()

	err := c.roundTrip(ctx, query, vars, out)
	if err != nil {
		c.metrics.FetchFailed(ctx, op, errorKind(err), time.Since(start))

		return err
	}
	c.metrics.PageFetched(ctx, op, time.Since(start))

	return nil
}

func (c *Client) roundTrip(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

		return &StatusError{Code: resp.StatusCode}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors GraphQLErrors   `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	if len(envelope.Data) == 0 || bytes.Equal(envelope.Data, []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// requestID forwards the inbound request id, or mints one for calls made
// outside an HTTP request.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}

	return uuid.NewString()
}
