package hashnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

// upstream is a scripted GraphQL endpoint. reply is called with the 1-based
// call number and the decoded request.
type upstream struct {
	t     *testing.T
	reply func(call int, req graphqlRequest) (int, any)

	mu       sync.Mutex
	requests []graphqlRequest
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(u.t, http.MethodPost, r.Method)
	assert.Equal(u.t, "application/json", r.Header.Get("Content-Type"))
	assert.NotEmpty(u.t, r.Header.Get("X-Request-Id"))

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); !assert.NoError(u.t, err) {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	u.mu.Lock()
	u.requests = append(u.requests, req)
	call := len(u.requests)
	u.mu.Unlock()

	status, body := u.reply(call, req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if s, ok := body.(string); ok {
		_, _ = w.Write([]byte(s))

		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (u *upstream) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.requests)
}

func (u *upstream) request(i int) graphqlRequest {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.requests[i]
}

func newTestClient(t *testing.T, reply func(call int, req graphqlRequest) (int, any)) (*Client, *upstream) {
	t.Helper()

	u := &upstream{t: t, reply: reply}
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)

	return New(WithEndpoint(srv.URL), WithHost("blog.example.com")), u
}

func node(id string) map[string]any {
	return map[string]any{
		"id":                id,
		"title":             "Post " + id,
		"brief":             "Brief of " + id,
		"slug":              "post-" + id,
		"coverImage":        map[string]any{"url": "https://cdn.example.com/" + id + ".png"},
		"publishedAt":       "2024-01-02T03:04:05.000Z",
		"readTimeInMinutes": 4,
		"views":             17,
		"tags":              []map[string]any{{"name": "aws"}, {"name": "devops"}},
	}
}

func nodes(from, n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, node(fmt.Sprintf("%d", from+i)))
	}

	return out
}

func listPage(hasNext bool, cursor string, ns []map[string]any) map[string]any {
	edges := make([]map[string]any, 0, len(ns))
	for _, n := range ns {
		edges = append(edges, map[string]any{"node": n})
	}

	return map[string]any{
		"data": map[string]any{
			"publication": map[string]any{
				"posts": map[string]any{
					"edges": edges,
					"pageInfo": map[string]any{
						"hasNextPage": hasNext,
						"endCursor":   cursor,
					},
				},
			},
		},
	}
}

func graphqlErrors(msg string) map[string]any {
	return map[string]any{
		"data":   nil,
		"errors": []map[string]any{{"message": msg}},
	}
}

func ids(posts []model.BlogPost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}

	return out
}

func TestListPostsFollowsCursor(t *testing.T) {
	c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
		switch call {
		case 1:
			return http.StatusOK, listPage(true, "cursor-1", nodes(1, 2))
		default:
			return http.StatusOK, listPage(false, "cursor-2", nodes(3, 1))
		}
	})

	posts, complete := c.ListPostsComplete(context.Background(), 10)

	assert.Equal(t, []string{"1", "2", "3"}, ids(posts))
	assert.True(t, complete)
	assert.Equal(t, 2, u.calls())

	first := u.request(0)
	assert.Equal(t, "blog.example.com", first.Variables["host"])
	assert.Equal(t, float64(10), first.Variables["first"])
	assert.NotContains(t, first.Variables, "after")

	second := u.request(1)
	assert.Equal(t, "cursor-1", second.Variables["after"])
	assert.Equal(t, float64(8), second.Variables["first"])
}

func TestListPostsGraphQLErrorOnFirstPage(t *testing.T) {
	c, u := newTestClient(t, func(int, graphqlRequest) (int, any) {
		return http.StatusOK, graphqlErrors("publication is rate limited")
	})

	posts := c.ListPosts(context.Background(), 10)

	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.Equal(t, 1, u.calls())
}

func TestListPostsStopsAtPageCeiling(t *testing.T) {
	c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
		first := int(req.Variables["first"].(float64))

		return http.StatusOK, listPage(true, fmt.Sprintf("cursor-%d", call), nodes(call*100, first))
	})

	posts, complete := c.ListPostsComplete(context.Background(), 1000)

	assert.True(t, complete)
	assert.Equal(t, MaxPages, u.calls())
	assert.Len(t, posts, MaxPages*MaxPageSize)
}

func TestListPostsCeilingWithEmptyPages(t *testing.T) {
	c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
		return http.StatusOK, listPage(true, fmt.Sprintf("cursor-%d", call), nil)
	})

	posts := c.ListPosts(context.Background(), 10)

	assert.Empty(t, posts)
	assert.Equal(t, MaxPages, u.calls())
}

func TestListPostsPageSizes(t *testing.T) {
	c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
		first := int(req.Variables["first"].(float64))

		return http.StatusOK, listPage(true, fmt.Sprintf("cursor-%d", call), nodes(call*100, first))
	})

	posts := c.ListPosts(context.Background(), 45)

	require.Len(t, posts, 45)
	require.Equal(t, 3, u.calls())
	assert.Equal(t, float64(20), u.request(0).Variables["first"])
	assert.Equal(t, float64(20), u.request(1).Variables["first"])
	assert.Equal(t, float64(5), u.request(2).Variables["first"])
}

func TestListPostsTruncatesOvershoot(t *testing.T) {
	c, u := newTestClient(t, func(int, graphqlRequest) (int, any) {
		return http.StatusOK, listPage(true, "cursor-1", nodes(1, 5))
	})

	posts := c.ListPosts(context.Background(), 3)

	assert.Equal(t, []string{"1", "2", "3"}, ids(posts))
	assert.Equal(t, 1, u.calls())
}

func TestListPostsDefaultLimit(t *testing.T) {
	c, u := newTestClient(t, func(int, graphqlRequest) (int, any) {
		return http.StatusOK, listPage(false, "", nodes(1, 2))
	})

	posts := c.ListPosts(context.Background(), 0)

	assert.Len(t, posts, 2)
	assert.Equal(t, float64(DefaultLimit), u.request(0).Variables["first"])
}

func TestListPostsNoPosts(t *testing.T) {
	c, u := newTestClient(t, func(int, graphqlRequest) (int, any) {
		return http.StatusOK, listPage(false, "", nil)
	})

	posts := c.ListPosts(context.Background(), 10)

	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.Equal(t, 1, u.calls())
}

func TestListPostsKeepsPostsBeforeFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply func() (int, any)
	}{
		{"status", func() (int, any) { return http.StatusBadGateway, "upstream down" }},
		{"graphql", func() (int, any) { return http.StatusOK, graphqlErrors("boom") }},
		{"malformed", func() (int, any) { return http.StatusOK, "<html>not json</html>" }},
		{"null data", func() (int, any) { return http.StatusOK, map[string]any{"data": nil} }},
		{"no publication", func() (int, any) {
			return http.StatusOK, map[string]any{"data": map[string]any{"publication": nil}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
				if call == 1 {
					return http.StatusOK, listPage(true, "cursor-1", nodes(1, 2))
				}

				return tt.reply()
			})

			posts, complete := c.ListPostsComplete(context.Background(), 10)

			assert.Equal(t, []string{"1", "2"}, ids(posts))
			assert.False(t, complete)
			assert.Equal(t, 2, u.calls())
		})
	}
}

func TestUnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := New(WithEndpoint(endpoint))

	posts := c.ListPosts(context.Background(), 10)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	_, ok := c.GetPost(context.Background(), "hello-world")
	assert.False(t, ok)
}

func TestListPostsMapping(t *testing.T) {
	bare := map[string]any{
		"id":                "bare",
		"title":             "No cover",
		"brief":             "",
		"slug":              "no-cover",
		"coverImage":        nil,
		"publishedAt":       "2023-12-31T23:59:59.000Z",
		"readTimeInMinutes": 1,
		"views":             0,
		"tags":              nil,
	}
	c, _ := newTestClient(t, func(int, graphqlRequest) (int, any) {
		return http.StatusOK, listPage(false, "", []map[string]any{node("1"), bare})
	})

	posts := c.ListPosts(context.Background(), 10)

	require.Len(t, posts, 2)
	assert.Equal(t, model.BlogPost{
		ID:         "1",
		Title:      "Post 1",
		Brief:      "Brief of 1",
		Slug:       "post-1",
		CoverImage: "https://cdn.example.com/1.png",
		DateAdded:  "2024-01-02T03:04:05.000Z",
		ReadTime:   4,
		Views:      17,
		Tags:       []string{"aws", "devops"},
	}, posts[0])

	assert.Equal(t, "", posts[1].CoverImage)
	assert.NotNil(t, posts[1].Tags)
	assert.Empty(t, posts[1].Tags)
	for _, p := range posts {
		assert.Empty(t, p.Content)
	}
}

func TestGetPost(t *testing.T) {
	c, u := newTestClient(t, func(call int, req graphqlRequest) (int, any) {
		n := node("42")
		n["content"] = map[string]any{"html": "<p>Hello</p>"}

		return http.StatusOK, map[string]any{
			"data": map[string]any{"publication": map[string]any{"post": n}},
		}
	})

	post, ok := c.GetPost(context.Background(), "post-42")

	require.True(t, ok)
	assert.Equal(t, "42", post.ID)
	assert.Equal(t, "<p>Hello</p>", post.Content)
	assert.Equal(t, []string{"aws", "devops"}, post.Tags)
	assert.Equal(t, "post-42", u.request(0).Variables["slug"])
	assert.Equal(t, "blog.example.com", u.request(0).Variables["host"])
}

func TestGetPostAbsent(t *testing.T) {
	tests := []struct {
		name  string
		reply func() (int, any)
	}{
		{"null post", func() (int, any) {
			return http.StatusOK, map[string]any{"data": map[string]any{"publication": map[string]any{"post": nil}}}
		}},
		{"no publication", func() (int, any) {
			return http.StatusOK, map[string]any{"data": map[string]any{"publication": nil}}
		}},
		{"graphql", func() (int, any) { return http.StatusOK, graphqlErrors("not allowed") }},
		{"status", func() (int, any) { return http.StatusInternalServerError, "oops" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, u := newTestClient(t, func(int, graphqlRequest) (int, any) { return tt.reply() })

			post, ok := c.GetPost(context.Background(), "missing")

			assert.False(t, ok)
			assert.Equal(t, model.BlogPost{}, post)
			assert.Equal(t, 1, u.calls())
		})
	}
}

func TestGetPostEmptySlug(t *testing.T) {
	c, u := newTestClient(t, func(int, graphqlRequest) (int, any) {
		t.Error("unexpected upstream call")

		return 0, nil
	})

	_, ok := c.GetPost(context.Background(), "")

	assert.False(t, ok)
	assert.Equal(t, 0, u.calls())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "graphql", errorKind(GraphQLErrors{{Message: "x"}}))
	assert.Equal(t, "status", errorKind(fmt.Errorf("wrap: %w", &StatusError{Code: 502})))
	assert.Equal(t, "malformed", errorKind(fmt.Errorf("%w: eof", ErrMalformedResponse)))
	assert.Equal(t, "transport", errorKind(errors.New("dial tcp: connection refused")))
}

func TestGraphQLErrorsMessage(t *testing.T) {
	err := GraphQLErrors{{Message: "first"}, {Message: "second"}}

	assert.Equal(t, "graphql: first; second", err.Error())
}
