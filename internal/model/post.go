package model

import (
	"strings"
	"time"
)

// BlogPost is a post of the publication as returned by the retrieval client.
// A value is a snapshot of the upstream at fetch time and is never mutated
// after construction.
type BlogPost struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Brief      string   `json:"brief"`
	Slug       string   `json:"slug"`
	CoverImage string   `json:"coverImage"`
	DateAdded  string   `json:"dateAdded"` // ISO-8601, verbatim from upstream
	ReadTime   int      `json:"readTime"`  // minutes
	Views      int      `json:"views"`
	Tags       []string `json:"tags"`

	// Content is the rendered HTML body. Only single post retrieval fills it.
	Content string `json:"content,omitempty"`
}

// PublishedAt parses DateAdded. The second result is false when the upstream
// value is empty or not RFC 3339.
func (p BlogPost) PublishedAt() (time.Time, bool) {
	if p.DateAdded == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, p.DateAdded)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func (p BlogPost) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}

	return false
}
