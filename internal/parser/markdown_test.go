package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docsPage = `# Getting started

Install the agent first.

## Configuration

Set the crawl interval.

### Proxies

Proxy credentials go in the environment.

## Running

Start the service.
`

func TestMarkdownParser_HeadingTree(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(docsPage), "https://docs.example.com/guide/start.md")
	require.NoError(t, err)

	assert.Equal(t, "start", tree.Title)
	require.Len(t, tree.Children, 1)

	top := tree.Children[0]
	assert.Equal(t, "Getting started", top.Title)
	assert.Equal(t, "Install the agent first.", top.Text)
	require.Len(t, top.Children, 2)

	cfg := top.Children[0]
	assert.Equal(t, "Configuration", cfg.Title)
	assert.Equal(t, "Set the crawl interval.", cfg.Text)
	require.Len(t, cfg.Children, 1)
	assert.Equal(t, "Proxies", cfg.Children[0].Title)

	assert.Equal(t, "Running", top.Children[1].Title)
	assert.Empty(t, top.Children[1].Children)
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader("First paragraph.\n\nSecond paragraph."), "https://example.com/notes.md")
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", tree.Children[0].Text)
}

func TestMarkdownParser_CodeBlocksKeepLines(t *testing.T) {
	input := "# API\n\n## Endpoints\n\nRoutes:\n\n```\nGET /api/sitemaps/{id}/status\nPOST /api/sitemaps\n```\n\nAll routes need a token.\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "https://example.com/api.md")
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	endpoints := tree.Children[0].Children[0]
	assert.Equal(t, "Endpoints", endpoints.Title)
	assert.Contains(t, endpoints.Text, "GET /api/sitemaps/{id}/status\nPOST /api/sitemaps")
	assert.Contains(t, endpoints.Text, "All routes need a token.")
}

func TestMarkdownParser_EmptyPage(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "https://example.com/empty.md")
	require.NoError(t, err)
	assert.Empty(t, tree.Children)
	assert.True(t, tree.Empty())
}

func TestMarkdownParser_TitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"readme.md", "readme"},
		{"https://example.com/guide/notes.markdown", "notes"},
		{"https://example.com/plain.md#top", "plain"},
		{"https://example.com/raw/CHANGELOG.md?ref=main", "CHANGELOG"},
		{"https://example.com/docs/", "docs"},
	}
	for _, tt := range tests {
		tree, err := (&MarkdownParser{}).Parse(strings.NewReader("text"), tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tree.Title, tt.url)
	}
}

func TestMarkdownParser_TextBeforeFirstHeading(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader("Preamble line.\n\n# Heading\n\nBody."), "https://example.com/pre.md")
	require.NoError(t, err)

	require.Len(t, tree.Children, 2)
	assert.Empty(t, tree.Children[0].Title)
	assert.Equal(t, "Preamble line.", tree.Children[0].Text)
	assert.Equal(t, "Heading", tree.Children[1].Title)
	assert.Equal(t, "Body.", tree.Children[1].Text)
}

func TestMarkdownParser_InlineTextNotDuplicated(t *testing.T) {
	input := "# T\n\nSome *emphasised* words and `code`.\n\n- one\n- two\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "https://example.com/dup.md")
	require.NoError(t, err)
	assert.Equal(t, "Some emphasised words and code.\n\none\ntwo", tree.Children[0].Text)
}

func TestForContent_MarkdownPages(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
	}{
		{"text/markdown; charset=utf-8", "https://example.com/docs/page"},
		{"text/x-markdown", "https://example.com/docs/page?format=md"},
		{"", "https://example.com/docs/page.md?ref=main"},
		{"application/octet-stream", "https://example.com/docs/page.markdown#intro"},
	}
	for _, tt := range tests {
		p, err := ForContent(tt.contentType, tt.url, Options{})
		require.NoError(t, err, tt.url)
		assert.IsType(t, &MarkdownParser{}, p, tt.url)
	}

	// The response content type wins over a misleading extension.
	p, err := ForContent("text/html", "https://example.com/page.md", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTMLParser{}, p)
}
