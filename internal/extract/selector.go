package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/sitegest/internal/webbase"
)

// Selector extracts the text of the elements matching a CSS query, such as
// "article" or "main .content". Pages without a match fall back to Text.
type Selector struct {
	Query string
}

func (s Selector) Extract(page *webbase.Page) (string, error) {
	if page.HTML == nil {
		return Text{}.Extract(page)
	}
	sel := page.HTML.Find(s.Query)
	if sel.Length() == 0 {
		return Text{}.Extract(page)
	}

	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, item *goquery.Selection) {
		var sb strings.Builder
		for _, n := range item.Nodes {
			writeText(&sb, n)
		}
		if t := normalizeText(sb.String()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n"), nil
}
