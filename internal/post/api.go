package post

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/postresponse"
)

// API serves the posts of a Source as JSON.
type API struct {
	source  Source
	baseURL string
	logger  *zap.SugaredLogger
}

// NewAPI returns the posts API. baseURL is the public address of the
// publication and is used to build post links.
func NewAPI(source Source, baseURL string, logger *zap.SugaredLogger) *API {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &API{
		source:  source,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Routes mounts under /posts:
//
//	GET /posts?limit=N
//	GET /posts/search?tag=T&limit=N
//	GET /posts/{postSlug}
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(Paginate).Get("/", a.ListPosts)
	r.With(Paginate).Get("/search", a.SearchPosts)

	r.Route("/{postSlug}", func(r chi.Router) {
		r.Use(a.PostCtx) // Load the *BlogPost on the request context
		r.Get("/", a.GetPost)
	})

	return r
}

// ListPosts renders the most recent posts. An unavailable upstream yields an
// empty list, not an error.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := a.source.ListPosts(r.Context(), LimitFromContext(r.Context()))

	a.renderList(w, r, posts)
}

// SearchPosts lists the posts carrying the tag given by the tag query
// parameter. Matching is case-insensitive and scans the MaxLimit most recent
// posts.
func (a *API) SearchPosts(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		a.renderErr(w, r, errresponse.ErrInvalidRequest(errresponse.CodeMissingTag, errors.New("missing tag")))

		return
	}

	limit := LimitFromContext(r.Context())
	matches := make([]model.BlogPost, 0, limit)

	for _, p := range a.source.ListPosts(r.Context(), MaxLimit) {
		if !p.HasTag(tag) {
			continue
		}
		matches = append(matches, p)
		if len(matches) == limit {
			break
		}
	}

	a.renderList(w, r, matches)
}

// GetPost returns the post loaded by PostCtx.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := postFromContext(r.Context())
	if !ok {
		a.renderErr(w, r, errresponse.ErrNotFound)

		return
	}

	if err := render.Render(w, r, postresponse.NewPostResponse(post, a.baseURL)); err != nil {
		a.renderErr(w, r, errresponse.ErrRender(err))
	}
}

func (a *API) renderList(w http.ResponseWriter, r *http.Request, posts []model.BlogPost) {
	if err := render.RenderList(w, r, postresponse.NewPostListResponse(posts, a.baseURL)); err != nil {
		a.renderErr(w, r, errresponse.ErrRender(err))
	}
}

func (a *API) renderErr(w http.ResponseWriter, r *http.Request, rd render.Renderer) {
	if err := render.Render(w, r, rd); err != nil {
		a.logger.Errorw("render error response", "path", r.URL.Path, "error", err)
	}
}
