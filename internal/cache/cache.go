// Package cache keeps recent post listings so that page renders do not hit the
// upstream on every request.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/post"
)

// DefaultTTL matches the hourly revalidation of the blog page.
const DefaultTTL = time.Hour

// Cache stores post listings by key.
type Cache interface {
	GetPosts(ctx context.Context, key string) ([]model.BlogPost, bool, error)
	SetPosts(ctx context.Context, key string, posts []model.BlogPost, ttl time.Duration) error
}

// Source is a post.Source that serves ListPosts from a Cache. Single posts
// are always read through.
type Source struct {
	next   post.Source
	cache  Cache
	ttl    time.Duration
	logger *zap.SugaredLogger
}

var _ post.Source = (*Source)(nil)

// completeLister is a source that can tell a full listing from one cut short
// by an upstream failure.
type completeLister interface {
	ListPostsComplete(ctx context.Context, limit int) ([]model.BlogPost, bool)
}

func NewSource(next post.Source, c Cache, ttl time.Duration, logger *zap.SugaredLogger) *Source {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Source{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// ListPosts returns the cached listing for limit, fetching and storing it on
// a miss. Empty listings, listings cut short by a failed page and listings
// fetched under a cancelled context are not stored.
func (s *Source) ListPosts(ctx context.Context, limit int) []model.BlogPost {
	key := listKey(limit)

	posts, ok, err := s.cache.GetPosts(ctx, key)
	if err != nil {
		s.logger.Warnw("cache read failed", "key", key, "error", err)
	}
	if ok {
		return posts
	}

	posts, complete := s.list(ctx, limit)
	if len(posts) == 0 || !complete || ctx.Err() != nil {
		return posts
	}

	if err := s.cache.SetPosts(ctx, key, posts, s.ttl); err != nil {
		s.logger.Warnw("cache write failed", "key", key, "error", err)
	}

	return posts
}

func (s *Source) list(ctx context.Context, limit int) ([]model.BlogPost, bool) {
	if cl, ok := s.next.(completeLister); ok {
		return cl.ListPostsComplete(ctx, limit)
	}

	return s.next.ListPosts(ctx, limit), true
}

func (s *Source) GetPost(ctx context.Context, slug string) (model.BlogPost, bool) {
	return s.next.GetPost(ctx, slug)
}

func listKey(limit int) string {
	return fmt.Sprintf("posts:%d", limit)
}
