package hashnode

import "github.com/SergeyParamoshkin/blog/internal/model"

const postFields = `
      id
      title
      brief
      slug
      coverImage {
        url
      }
      publishedAt
      readTimeInMinutes
      views
      tags {
        name
      }`

const listPostsQuery = `
query ListPosts($host: String!, $first: Int!, $after: String) {
  publication(host: $host) {
    posts(first: $first, after: $after) {
      edges {
        node {` + postFields + `
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

const getPostQuery = `
query GetPost($host: String!, $slug: String!) {
  publication(host: $host) {
    post(slug: $slug) {` + postFields + `
      content {
        html
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type postsData struct {
	Publication *struct {
		Posts struct {
			Edges []struct {
				Node postNode `json:"node"`
			} `json:"edges"`
			PageInfo pageInfo `json:"pageInfo"`
		} `json:"posts"`
	} `json:"publication"`
}

type postData struct {
	Publication *struct {
		Post *postNode `json:"post"`
	} `json:"publication"`
}

type postNode struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Brief             string      `json:"brief"`
	Slug              string      `json:"slug"`
	CoverImage        *coverImage `json:"coverImage"`
	PublishedAt       string      `json:"publishedAt"`
	ReadTimeInMinutes int         `json:"readTimeInMinutes"`
	Views             int         `json:"views"`
	Tags              []tag       `json:"tags"`
	Content           *content    `json:"content"`
}

type coverImage struct {
	URL string `json:"url"`
}

type tag struct {
	Name string `json:"name"`
}

type content struct {
	HTML string `json:"html"`
}

func (n postNode) toModel() model.BlogPost {
	p := model.BlogPost{
		ID:        n.ID,
		Title:     n.Title,
		Brief:     n.Brief,
		Slug:      n.Slug,
		DateAdded: n.PublishedAt,
		ReadTime:  n.ReadTimeInMinutes,
		Views:     n.Views,
		Tags:      make([]string, 0, len(n.Tags)),
	}
	if n.CoverImage != nil {
		p.CoverImage = n.CoverImage.URL
	}
	for _, t := range n.Tags {
		p.Tags = append(p.Tags, t.Name)
	}
	if n.Content != nil {
		p.Content = n.Content.HTML
	}

	return p
}
