package post

import (
	"context"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=mocks/mock.go

// Source yields blog posts. Implementations are fail-soft: an unavailable
// upstream is reported as an empty list or an absent post, never as an error.
type Source interface {
	ListPosts(ctx context.Context, limit int) []model.BlogPost
	GetPost(ctx context.Context, slug string) (model.BlogPost, bool)
}
