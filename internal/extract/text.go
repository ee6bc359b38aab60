package extract

import (
	"strings"

	"github.com/dgallion1/sitegest/internal/webbase"
	"golang.org/x/net/html"
)

// Text returns every human-readable text node of the page in document order.
// XML pages yield their inner text.
type Text struct{}

func (Text) Extract(page *webbase.Page) (string, error) {
	switch {
	case page.HTML != nil:
		var sb strings.Builder
		for _, n := range page.HTML.Nodes {
			writeText(&sb, n)
		}
		return normalizeText(sb.String()), nil
	case page.XML != nil:
		return normalizeText(page.XML.InnerText()), nil
	default:
		return normalizeText(string(page.Body)), nil
	}
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br":
			sb.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}

// normalizeText trims trailing space on each line and collapses runs of
// blank lines into one.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
