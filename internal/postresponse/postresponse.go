package postresponse

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

// PostResponse is the response payload for the BlogPost data model.
//
// Render is called on the payload before it is marshalled, which is where the
// computed fields are filled in.
type PostResponse struct {
	*model.BlogPost

	// URL is the canonical address of the post on the publication.
	URL string `json:"url,omitempty"`
	// PublishedDate is DateAdded formatted for display.
	PublishedDate string `json:"publishedDate,omitempty"`

	baseURL string
}

func NewPostResponse(post *model.BlogPost, baseURL string) *PostResponse {
	return &PostResponse{
		BlogPost: post,
		baseURL:  baseURL,
	}
}

func NewPostListResponse(posts []model.BlogPost, baseURL string) []render.Renderer {
	list := make([]render.Renderer, 0, len(posts))
	for i := range posts {
		list = append(list, NewPostResponse(&posts[i], baseURL))
	}

	return list
}

func (rd *PostResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if rd.baseURL != "" && rd.Slug != "" {
		rd.URL = strings.TrimSuffix(rd.baseURL, "/") + "/" + rd.Slug
	}
	if t, ok := rd.PublishedAt(); ok {
		rd.PublishedDate = t.Format(DateLayout)
	}

	return nil
}

// DateLayout is the display format of publish dates, e.g. "March 5, 2024".
const DateLayout = "January 2, 2006"
