package page

import (
	"encoding/xml"
	"net/http"
	"time"
)

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Feed renders the index posts as RSS 2.0.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	posts := h.source.ListPosts(r.Context(), h.opts.Limit)

	doc := rss{
		Version: "2.0",
		Channel: rssChannel{
			Title:       h.opts.Title,
			Link:        h.opts.PostBaseURL,
			Description: h.opts.Description,
			Items:       make([]rssItem, 0, len(posts)),
		},
	}

	var latest time.Time
	for _, p := range posts {
		item := rssItem{
			Title:       p.Title,
			Link:        h.postURL(p),
			Description: p.Brief,
			GUID:        rssGUID{Value: p.ID},
			Categories:  p.Tags,
		}
		if t, ok := p.PublishedAt(); ok {
			item.PubDate = t.Format(time.RFC1123Z)
			if t.After(latest) {
				latest = t
			}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}
	if !latest.IsZero() {
		doc.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		h.logger.Errorw("render feed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	if _, err := w.Write(out); err != nil {
		h.logger.Warnw("write feed", "error", err)
	}
}
