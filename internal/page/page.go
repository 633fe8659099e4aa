// Package page renders the blog as server side HTML and as an RSS feed.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/post"
	"github.com/SergeyParamoshkin/blog/internal/postresponse"
)

const (
	// DefaultLimit is the number of posts on the blog index.
	DefaultLimit = 20
	// MaxCardTags is the number of tags shown on a card.
	MaxCardTags = 3

	summaryRunes = 200
)

//go:embed templates
var templateFS embed.FS

type Options struct {
	// Limit is the number of posts on the index and in the feed.
	Limit int
	// PostBaseURL is the public address of the publication. Cards link to
	// PostBaseURL/<slug>.
	PostBaseURL string
	// Title and Description head the index page and the feed channel.
	Title       string
	Description string
	// MountPath is where Routes is mounted, used for links between pages.
	MountPath string
	Logger    *zap.SugaredLogger
}

type Handler struct {
	source post.Source
	opts   Options
	tmpl   *template.Template
	logger *zap.SugaredLogger
}

func New(source post.Source, opts Options) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Title == "" {
		opts.Title = "Tech Blog"
	}
	if opts.MountPath == "" {
		opts.MountPath = "/blog"
	}
	opts.MountPath = strings.TrimSuffix(opts.MountPath, "/")
	opts.PostBaseURL = strings.TrimSuffix(opts.PostBaseURL, "/")

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Handler{
		source: source,
		opts:   opts,
		tmpl:   tmpl,
		logger: logger,
	}, nil
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Index)
	r.Get("/rss.xml", h.Feed)
	r.Get("/{postSlug}", h.Post)

	return r
}

type card struct {
	Title      string
	Brief      string
	URL        string
	CoverImage string
	Date       string
	ReadTime   int
	Views      int
	Tags       []string
}

type indexView struct {
	Title          string
	Description    string
	PublicationURL string
	FeedPath       string
	Cards          []card
}

type postView struct {
	Title      string
	Summary    string
	URL        string
	IndexPath  string
	CoverImage string
	Date       string
	ReadTime   int
	Views      int
	Tags       []string
	Content    template.HTML
}

// Index renders one card per post. An unavailable upstream renders the empty
// state.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	posts := h.source.ListPosts(r.Context(), h.opts.Limit)

	view := indexView{
		Title:          h.opts.Title,
		Description:    h.opts.Description,
		PublicationURL: h.opts.PostBaseURL,
		FeedPath:       h.opts.MountPath + "/rss.xml",
		Cards:          make([]card, 0, len(posts)),
	}
	for _, p := range posts {
		view.Cards = append(view.Cards, h.card(p))
	}

	h.execute(w, r, http.StatusOK, "index", view)
}

// Post renders a single post with its HTML body.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	p, ok := h.source.GetPost(r.Context(), chi.URLParam(r, "postSlug"))
	if !ok {
		h.execute(w, r, http.StatusNotFound, "notfound", postView{IndexPath: h.opts.MountPath + "/"})

		return
	}

	summary := p.Brief
	if summary == "" {
		summary = Excerpt(p.Content, summaryRunes)
	}

	h.execute(w, r, http.StatusOK, "post", postView{
		Title:      p.Title,
		Summary:    summary,
		URL:        h.postURL(p),
		IndexPath:  h.opts.MountPath + "/",
		CoverImage: p.CoverImage,
		Date:       displayDate(p),
		ReadTime:   p.ReadTime,
		Views:      p.Views,
		Tags:       p.Tags,
		// Body HTML comes from the publication and is trusted as-is.
		Content: template.HTML(p.Content), //nolint:gosec
	})
}

func (h *Handler) card(p model.BlogPost) card {
	tags := p.Tags
	if len(tags) > MaxCardTags {
		tags = tags[:MaxCardTags]
	}

	return card{
		Title:      p.Title,
		Brief:      p.Brief,
		URL:        h.postURL(p),
		CoverImage: p.CoverImage,
		Date:       displayDate(p),
		ReadTime:   p.ReadTime,
		Views:      p.Views,
		Tags:       tags,
	}
}

func (h *Handler) postURL(p model.BlogPost) string {
	return h.opts.PostBaseURL + "/" + p.Slug
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Errorw("render page", "template", name, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warnw("write page", "template", name, "error", err)
	}
}

// displayDate formats the publish date, falling back to the raw upstream
// value when it does not parse.
func displayDate(p model.BlogPost) string {
	if t, ok := p.PublishedAt(); ok {
		return t.Format(postresponse.DateLayout)
	}

	return p.DateAdded
}
