package sitemap

import (
	"github.com/dgallion1/sitegest/internal/extract"
	"go.uber.org/zap"
)

// Option configures a Walker.
type Option func(*Walker)

// WithFilters keeps only locations matching at least one pattern at the
// start of the URL.
func WithFilters(patterns []string) Option {
	return func(w *Walker) {
		w.patterns = append([]string(nil), patterns...)
	}
}

// WithExtractor replaces the default plain text extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(w *Walker) {
		if e != nil {
			w.extractor = e
		}
	}
}

// WithBlock selects block num (zero-based) of size consecutive locations.
func WithBlock(size, num int) Option {
	return func(w *Walker) {
		w.block = &blockSpec{size: size, num: num}
	}
}

// WithMaxDepth stops expanding nested sitemaps below depth levels under the
// root. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(w *Walker) {
		w.maxDepth = depth
	}
}

// WithLogger sets the logger for walk progress. A nil logger is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(w *Walker) {
		if log != nil {
			w.log = log
		}
	}
}
