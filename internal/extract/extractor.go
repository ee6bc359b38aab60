package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/sitegest/internal/webbase"
)

// Extractor turns a fetched page into document text.
type Extractor interface {
	Extract(page *webbase.Page) (string, error)
}

// Func adapts a plain function to Extractor.
type Func func(page *webbase.Page) (string, error)

func (f Func) Extract(page *webbase.Page) (string, error) { return f(page) }

// Names accepted by ByName.
const (
	NameText       = "text"
	NameMarkdown   = "markdown"
	NameSelector   = "selector"
	NameStructured = "structured"
)

type Options struct {
	Selector             string // CSS query for the selector extractor
	PDFFallbackPdftotext bool
}

// ByName resolves an extractor from its configuration name. An empty name
// selects Text.
func ByName(name string, opts Options) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameText:
		return Text{}, nil
	case NameMarkdown:
		return Markdown{}, nil
	case NameSelector:
		if strings.TrimSpace(opts.Selector) == "" {
			return nil, fmt.Errorf("selector extractor needs a CSS query")
		}
		return Selector{Query: opts.Selector}, nil
	case NameStructured:
		return Structured{PDFFallback: opts.PDFFallbackPdftotext}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
