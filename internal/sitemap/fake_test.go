package sitemap

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/sitegest/internal/webbase"
)

// fakeFetcher serves canned bodies by URL and records every request.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, errs: map[string]error{}}
}

func (f *fakeFetcher) Scrape(_ context.Context, url string, format webbase.Format) (*webbase.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	err := f.errs[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &webbase.FetchError{URL: url, StatusCode: 404}
	}

	page := &webbase.Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body), Format: format}
	switch format {
	case webbase.FormatXML:
		doc, err := xmlquery.Parse(strings.NewReader(body))
		if err != nil {
			return nil, &webbase.ParseError{URL: url, Format: format, Err: err}
		}
		page.XML = doc
	default:
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return nil, &webbase.ParseError{URL: url, Format: format, Err: err}
		}
		page.HTML = doc
	}
	return page, nil
}

func (f *fakeFetcher) ScrapeAll(ctx context.Context, urls []string, format webbase.Format) ([]*webbase.Page, error) {
	pages := make([]*webbase.Page, 0, len(urls))
	for _, u := range urls {
		p, err := f.Scrape(ctx, u, format)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

func urlset(entries ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + strings.Join(entries, "\n") + `</urlset>`
}

func sitemapIndex(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		sb.WriteString("<sitemap><loc>" + l + "</loc></sitemap>\n")
	}
	sb.WriteString("</sitemapindex>")
	return sb.String()
}

func urlEntry(loc string) string {
	return "<url><loc>" + loc + "</loc></url>"
}

func htmlBody(text string) string {
	return "<html><body><p>" + text + "</p></body></html>"
}
