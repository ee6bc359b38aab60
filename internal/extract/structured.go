package extract

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/sitegest/internal/doctree"
	"github.com/dgallion1/sitegest/internal/parser"
	"github.com/dgallion1/sitegest/internal/webbase"
)

// Structured parses the page with the format parser matching its content
// type or extension and flattens the section tree. It handles sitemaps that
// list PDF, DOCX, Markdown or CSV files next to HTML pages.
type Structured struct {
	PDFFallback bool
}

func (s Structured) Extract(page *webbase.Page) (string, error) {
	tree, err := s.Tree(page)
	if err != nil {
		return "", err
	}
	return tree.Flatten(), nil
}

// Tree returns the parsed section tree rather than flat text.
func (s Structured) Tree(page *webbase.Page) (*doctree.DocTree, error) {
	p, err := parser.ForContent(page.ContentType, page.URL, parser.Options{PDFFallbackPdftotext: s.PDFFallback})
	if err != nil {
		return nil, err
	}
	if hp, ok := p.(*parser.HTMLParser); ok && page.HTML != nil && len(page.HTML.Nodes) > 0 {
		return hp.FromNode(page.HTML.Nodes[0], page.URL), nil
	}
	tree, err := p.Parse(bytes.NewReader(page.Body), page.URL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}
	return tree, nil
}
