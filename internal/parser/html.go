package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/sitegest/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser builds a section tree from h1-h6 headings.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, name string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return p.FromNode(doc, name), nil
}

// FromNode builds the tree from an already parsed document.
func (p *HTMLParser) FromNode(doc *html.Node, name string) *doctree.DocTree {
	tree := &doctree.DocTree{Title: TitleFromName(name), Source: name}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	b := newTreeBuilder(tree.Title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, TextContent(n))
				return
			}

			switch n.Data {
			case "script", "style", "noscript", "template", "nav", "footer", "header":
				return
			case "p", "li", "td", "th", "dt", "dd", "blockquote", "pre", "figcaption":
				b.paragraph(TextContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	b.finish(tree)
	return tree
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// TextContent returns the trimmed concatenation of all text below n,
// skipping script and style content.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return TextContent(t)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
