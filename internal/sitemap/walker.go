package sitemap

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/sitegest/internal/extract"
	"github.com/dgallion1/sitegest/internal/webbase"
	"go.uber.org/zap"
)

// Fetcher retrieves and parses pages. ScrapeAll must return pages in the
// order of urls. Headers, cookies and proxy settings belong to the Fetcher.
type Fetcher interface {
	Scrape(ctx context.Context, url string, format webbase.Format) (*webbase.Page, error)
	ScrapeAll(ctx context.Context, urls []string, format webbase.Format) ([]*webbase.Page, error)
}

// Splitter breaks loaded documents into smaller ones.
type Splitter interface {
	SplitDocuments(docs []Document) []Document
}

// Walker loads every page listed by a sitemap, following sitemap indexes.
// Its configuration is read-only after New, so one Walker may serve
// concurrent loads.
type Walker struct {
	webPath   string
	fetcher   Fetcher
	extractor extract.Extractor
	log       *zap.Logger

	patterns []string
	filters  []*regexp.Regexp
	block    *blockSpec
	maxDepth int
}

// New validates the configuration and returns a Walker for the sitemap at
// webPath. Invalid settings yield a *ConfigError.
func New(webPath string, fetcher Fetcher, opts ...Option) (*Walker, error) {
	w := &Walker{
		webPath:   strings.TrimSpace(webPath),
		fetcher:   fetcher,
		extractor: extract.Text{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.webPath == "" {
		return nil, configErr("web_path", "sitemap url is required")
	}
	if w.fetcher == nil {
		return nil, configErr("fetcher", "fetcher is required")
	}
	for _, p := range w.patterns {
		re, err := regexp.Compile(`\A(?:` + p + `)`)
		if err != nil {
			return nil, &ConfigError{Field: "filter", Err: fmt.Errorf("compile %q: %w", p, err)}
		}
		w.filters = append(w.filters, re)
	}
	if w.block != nil {
		if w.block.size <= 0 {
			return nil, configErr("block", "block size must be positive, got %d", w.block.size)
		}
		if w.block.num < 0 {
			return nil, configErr("block", "block number must not be negative, got %d", w.block.num)
		}
	}
	if w.maxDepth < 0 {
		return nil, configErr("max_depth", "max depth must not be negative, got %d", w.maxDepth)
	}

	return w, nil
}

// WebPath is the root sitemap URL.
func (w *Walker) WebPath() string { return w.webPath }

// Locations fetches the root sitemap, expands nested sitemaps and applies
// the block selection. No pages are fetched.
func (w *Walker) Locations(ctx context.Context) ([]LocationRecord, error) {
	root, err := w.fetcher.Scrape(ctx, w.webPath, webbase.FormatXML)
	if err != nil {
		return nil, err
	}
	locs, err := w.ParseSitemap(ctx, root.XML)
	if err != nil {
		return nil, err
	}
	w.log.Debug("sitemap parsed", zap.String("sitemap", w.webPath), zap.Int("locations", len(locs)))

	if w.block != nil {
		locs, err = selectBlock(locs, *w.block)
		if err != nil {
			return nil, err
		}
		w.log.Debug("block selected",
			zap.Int("block_size", w.block.size),
			zap.Int("block_num", w.block.num),
			zap.Int("locations", len(locs)),
		)
	}
	return locs, nil
}

// Fetch retrieves the page of every record in one batch and extracts its
// text. Documents come back in record order.
func (w *Walker) Fetch(ctx context.Context, locs []LocationRecord) ([]Document, error) {
	kept := make([]LocationRecord, 0, len(locs))
	urls := make([]string, 0, len(locs))
	for _, rec := range locs {
		loc := strings.TrimSpace(rec.Loc)
		if loc == "" {
			continue
		}
		kept = append(kept, rec)
		urls = append(urls, loc)
	}
	if len(urls) == 0 {
		return []Document{}, nil
	}

	pages, err := w.fetcher.ScrapeAll(ctx, urls, webbase.FormatHTML)
	if err != nil {
		return nil, err
	}
	if len(pages) != len(urls) {
		return nil, fmt.Errorf("fetcher returned %d pages for %d urls", len(pages), len(urls))
	}

	docs := make([]Document, 0, len(pages))
	for i, page := range pages {
		content, err := w.extractor.Extract(page)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", urls[i], err)
		}
		docs = append(docs, newDocument(kept[i], content))
	}
	return docs, nil
}

// Load returns one Document per selected location.
func (w *Walker) Load(ctx context.Context) ([]Document, error) {
	locs, err := w.Locations(ctx)
	if err != nil {
		return nil, err
	}
	return w.Fetch(ctx, locs)
}

// LoadAndSplit loads the documents and passes them through splitter.
func (w *Walker) LoadAndSplit(ctx context.Context, splitter Splitter) ([]Document, error) {
	docs, err := w.Load(ctx)
	if err != nil {
		return nil, err
	}
	if splitter == nil {
		return docs, nil
	}
	return splitter.SplitDocuments(docs), nil
}

func (w *Walker) matches(loc string) bool {
	if len(w.filters) == 0 {
		return true
	}
	for _, re := range w.filters {
		if re.MatchString(loc) {
			return true
		}
	}
	return false
}
