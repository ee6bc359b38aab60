package extract

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/dgallion1/sitegest/internal/webbase"
)

// Markdown converts HTML pages to Markdown. Non-HTML pages fall back to Text.
type Markdown struct{}

func (Markdown) Extract(page *webbase.Page) (string, error) {
	if page.HTML == nil {
		return Text{}.Extract(page)
	}
	md, err := htmltomarkdown.ConvertString(string(page.Body))
	if err != nil {
		return "", fmt.Errorf("convert %s to markdown: %w", page.URL, err)
	}
	return strings.TrimSpace(md), nil
}
