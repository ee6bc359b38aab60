package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/sitegest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown pages using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, name string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	tree := &doctree.DocTree{Title: TitleFromName(name), Source: name}
	b := newTreeBuilder(tree.Title)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, extractText(h, src))
			continue
		}
		b.paragraph(extractText(n, src))
	}
	b.finish(tree)

	return tree, nil
}

// extractText gets the text content of a goldmark AST node. Code and raw
// HTML blocks keep their lines verbatim; other blocks use their inline text.
func extractText(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	case *ast.ThematicBreak:
		return ""
	case *ast.AutoLink:
		return string(node.Label(src))
	case *ast.Text:
		s := string(node.Value(src))
		if node.HardLineBreak() || node.SoftLineBreak() {
			s += "\n"
		}
		return s
	case *ast.String:
		return string(node.Value)
	}

	var buf bytes.Buffer
	blockChildren := n.FirstChild() != nil && n.FirstChild().Type() == ast.TypeBlock
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t := extractText(c, src)
		if blockChildren {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
		buf.WriteString(t)
	}
	return strings.TrimSpace(buf.String())
}
