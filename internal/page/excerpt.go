package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt returns the first n runes of the text of an HTML fragment with
// whitespace collapsed. Longer text is cut at a word boundary and ends with
// "...".
func Excerpt(html string, n int) string {
	if html == "" || n <= 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " ,.;:") + "..."
}
