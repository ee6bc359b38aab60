package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/sitegest/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForContent(t *testing.T) {
	tests := []struct {
		contentType string
		name        string
		want        Parser
	}{
		{"text/html; charset=utf-8", "https://example.com/", &HTMLParser{}},
		{"application/pdf", "https://example.com/download?id=4", &PDFParser{}},
		{"application/octet-stream", "https://example.com/report.pdf", &PDFParser{}},
		{"", "https://example.com/guide.docx", &DOCXParser{}},
		{"text/markdown", "https://example.com/readme", &MarkdownParser{}},
		{"text/plain", "https://example.com/README.md", &MarkdownParser{}},
		{"text/plain", "https://example.com/robots", &TextParser{}},
		{"text/csv", "https://example.com/data", &CSVParser{}},
		{"", "https://example.com/page.HTM", &HTMLParser{}},
	}
	for _, tt := range tests {
		got, err := ForContent(tt.contentType, tt.name, Options{})
		require.NoError(t, err, "%s %s", tt.contentType, tt.name)
		assert.IsType(t, tt.want, got, "%s %s", tt.contentType, tt.name)
	}
}

func TestForContent_PDFFallbackOption(t *testing.T) {
	got, err := ForContent("application/pdf", "x.pdf", Options{PDFFallbackPdftotext: true})
	require.NoError(t, err)
	pdf, ok := got.(*PDFParser)
	require.True(t, ok)
	assert.True(t, pdf.FallbackPdftotext)
}

func TestForContent_Unsupported(t *testing.T) {
	_, err := ForContent("image/png", "https://example.com/logo.png", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "guide", TitleFromName("https://example.com/docs/guide.pdf?dl=1"))
	assert.Equal(t, "notes", TitleFromName("notes.txt"))
	assert.Equal(t, "", TitleFromName("https://example.com/"))
	assert.Equal(t, "", TitleFromName(""))
}

func TestPDFParser_RejectsGarbage(t *testing.T) {
	p := &PDFParser{}
	_, err := p.Parse(strings.NewReader("definitely not a pdf"), "bad.pdf")
	require.Error(t, err)
}

func TestDOCXParser_RejectsGarbage(t *testing.T) {
	p := &DOCXParser{}
	_, err := p.Parse(strings.NewReader("definitely not a zip"), "bad.docx")
	require.Error(t, err)
}

func TestTreeBuilder_PopsToParentLevel(t *testing.T) {
	b := newTreeBuilder("doc")
	b.heading(1, "A")
	b.paragraph("a text")
	b.heading(3, "A.1")
	b.heading(2, "A.2")
	b.heading(1, "B")
	b.paragraph("b one")
	b.paragraph("b two")

	tree := &doctree.DocTree{}
	b.finish(tree)

	require.Len(t, tree.Children, 2)
	a := tree.Children[0]
	assert.Equal(t, "a text", a.Text)
	require.Len(t, a.Children, 2)
	assert.Equal(t, "A.1", a.Children[0].Title)
	assert.Equal(t, "A.2", a.Children[1].Title)
	assert.Equal(t, "b one\n\nb two", tree.Children[1].Text)
}
