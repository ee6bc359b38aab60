package sitemap

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/sitegest/internal/webbase"
	"go.uber.org/zap"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ParseSitemap collects the <url> entries of doc, then appends the entries
// of every nested <sitemap> depth-first. A nested sitemap that points back
// at itself or one of its ancestors is skipped.
func (w *Walker) ParseSitemap(ctx context.Context, doc *xmlquery.Node) ([]LocationRecord, error) {
	return w.parse(ctx, doc, []string{w.webPath})
}

func (w *Walker) parse(ctx context.Context, doc *xmlquery.Node, path []string) ([]LocationRecord, error) {
	if doc == nil {
		return nil, fmt.Errorf("sitemap %s: no xml document", path[len(path)-1])
	}

	var locs []LocationRecord
	for _, u := range elements(doc, "url") {
		loc := childText(u, KeyLoc)
		if loc == "" || !w.matches(loc) {
			continue
		}
		locs = append(locs, LocationRecord{
			Loc:        loc,
			LastMod:    childText(u, KeyLastMod),
			ChangeFreq: childText(u, KeyChangeFreq),
			Priority:   childText(u, KeyPriority),
		})
	}

	for _, sm := range elements(doc, "sitemap") {
		loc := childText(sm, KeyLoc)
		if loc == "" {
			continue
		}
		if slices.Contains(path, loc) {
			w.log.Warn("skipping cyclic sitemap reference", zap.String("sitemap", loc), zap.Strings("path", path))
			continue
		}
		if w.maxDepth > 0 && len(path) > w.maxDepth {
			w.log.Warn("skipping nested sitemap beyond max depth", zap.String("sitemap", loc), zap.Int("max_depth", w.maxDepth))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := w.fetcher.ScrapeAll(ctx, []string{loc}, webbase.FormatXML)
		if err != nil {
			return nil, err
		}
		if len(pages) != 1 {
			return nil, fmt.Errorf("fetcher returned %d pages for sitemap %s", len(pages), loc)
		}
		w.log.Debug("expanding nested sitemap", zap.String("sitemap", loc), zap.Int("depth", len(path)))

		nested, err := w.parse(ctx, pages[0].XML, append(slices.Clip(path), loc))
		if err != nil {
			return nil, err
		}
		locs = append(locs, nested...)
	}

	return locs, nil
}

// isSitemapElement matches unprefixed elements and elements in the sitemap
// namespace, so extension elements such as <image:loc> are ignored.
func isSitemapElement(n *xmlquery.Node, name string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == name &&
		(n.Prefix == "" || n.NamespaceURI == sitemapNS)
}

// elements returns every element called name below n in document order.
func elements(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isSitemapElement(c, name) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// childText returns the trimmed text of the first non-empty element called
// name below n. An empty element counts as absent.
func childText(n *xmlquery.Node, name string) string {
	for _, c := range elements(n, name) {
		if t := strings.TrimSpace(c.InnerText()); t != "" {
			return t
		}
	}
	return ""
}
