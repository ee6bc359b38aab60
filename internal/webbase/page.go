package webbase

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
)

// Format selects how a fetched body is parsed.
type Format string

const (
	FormatHTML Format = "html"
	FormatXML  Format = "xml"
)

// Page is a fetched and parsed response. Exactly one of XML or HTML is set,
// matching Format.
type Page struct {
	URL         string // as requested
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Format      Format

	XML  *xmlquery.Node
	HTML *goquery.Document
}

// MediaType returns the lower-cased media type of the response without
// parameters, or "" when the server sent none.
func (p *Page) MediaType() string {
	if p.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(p.ContentType, ";")[0]))
	}
	return mt
}

func parsePage(p *Page) error {
	switch p.Format {
	case FormatXML:
		doc, err := xmlquery.Parse(bytes.NewReader(p.Body))
		if err != nil {
			return &ParseError{URL: p.URL, Format: p.Format, Err: err}
		}
		p.XML = doc
	case FormatHTML:
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
		if err != nil {
			return &ParseError{URL: p.URL, Format: p.Format, Err: err}
		}
		p.HTML = doc
	default:
		return &ParseError{URL: p.URL, Format: p.Format, Err: fmt.Errorf("unknown format %q", p.Format)}
	}
	return nil
}
