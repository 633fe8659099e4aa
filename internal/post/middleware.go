package post

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

type ctxKey int8

const (
	ctxKeyPost ctxKey = iota
	ctxKeyLimit
)

const (
	// DefaultLimit is the number of posts listed when the request names none.
	DefaultLimit = 20
	// MaxLimit caps the limit query parameter.
	MaxLimit = 50
)

// PostCtx middleware is used to load a BlogPost from the postSlug URL
// parameter. In case the post could not be found, we stop here and return
// a 404.
func (a *API) PostCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "postSlug")
		if slug == "" {
			a.renderErr(w, r, errresponse.ErrNotFound)

			return
		}

		post, ok := a.source.GetPost(r.Context(), slug)
		if !ok {
			a.renderErr(w, r, errresponse.ErrNotFound)

			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPost, &post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Paginate reads the limit query parameter, clamps it to [1, MaxLimit] and
// puts it on the request context. A non-numeric limit is a bad request.
func Paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultLimit

		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				if rerr := render.Render(w, r, errresponse.ErrInvalidRequest(errresponse.CodeInvalidLimit, fmt.Errorf("limit: %w", err))); rerr != nil {
					http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				}

				return
			}
			limit = clamp(n, 1, MaxLimit)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLimit, limit)))
	})
}

// LimitFromContext returns the limit stored by Paginate, or DefaultLimit.
func LimitFromContext(ctx context.Context) int {
	if limit, ok := ctx.Value(ctxKeyLimit).(int); ok {
		return limit
	}

	return DefaultLimit
}

func postFromContext(ctx context.Context) (*model.BlogPost, bool) {
	post, ok := ctx.Value(ctxKeyPost).(*model.BlogPost)

	return post, ok
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
