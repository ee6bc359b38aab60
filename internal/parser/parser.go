package parser

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/dgallion1/sitegest/internal/doctree"
)

// Parser converts raw page bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, name string) (*doctree.DocTree, error)
}

var ErrUnsupported = errors.New("unsupported content")

type Options struct {
	PDFFallbackPdftotext bool
}

var byExtension = map[string]func(Options) Parser{
	".txt":      func(Options) Parser { return &TextParser{} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
}

var byMediaType = map[string]func(Options) Parser{
	"text/plain":            byExtension[".txt"],
	"text/markdown":         byExtension[".md"],
	"text/x-markdown":       byExtension[".md"],
	"text/csv":              byExtension[".csv"],
	"text/html":             byExtension[".html"],
	"application/xhtml+xml": byExtension[".html"],
	"application/pdf":       byExtension[".pdf"],
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": byExtension[".docx"],
}

// ForContent picks a parser from the response content type, falling back to
// the extension of name. Content types that say nothing specific, such as
// application/octet-stream or text/plain, defer to a known extension.
func ForContent(contentType, name string, opts Options) (Parser, error) {
	mt := ""
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mt = parsed
		}
	}
	ext := strings.ToLower(path.Ext(namePath(name)))

	if mt != "" && mt != "text/plain" {
		if mk, ok := byMediaType[mt]; ok {
			return mk(opts), nil
		}
	}
	if mk, ok := byExtension[ext]; ok {
		return mk(opts), nil
	}
	if mt == "text/plain" {
		return byMediaType[mt](opts), nil
	}
	return nil, fmt.Errorf("%w: content type %q, extension %q", ErrUnsupported, contentType, ext)
}

// TitleFromName derives a fallback title from a URL or file name: the last
// path segment without its extension.
func TitleFromName(name string) string {
	base := path.Base(namePath(name))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func namePath(name string) string {
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		return u.Path
	}
	return name
}
