package pipeline

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/dgallion1/sitegest/internal/chunker"
	"github.com/dgallion1/sitegest/internal/extract"
	"github.com/dgallion1/sitegest/internal/sitemap"
	"github.com/dgallion1/sitegest/internal/webbase"
	"go.uber.org/zap"
)

// WorkerConfig holds the service-wide settings every job starts from.
type WorkerConfig struct {
	Fetch       webbase.Options // per-job headers and cookies are merged in
	MaxDepth    int
	PDFFallback bool
	Chunk       chunker.Config
}

// Worker processes sitemap jobs.
type Worker struct {
	cfg WorkerConfig
	log *zap.Logger
}

func NewWorker(cfg WorkerConfig, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{cfg: cfg, log: log}
}

// Process runs the full load for a job: walk the sitemap, fetch the pages,
// then optionally split them.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With(zap.String("job_id", job.ID), zap.String("sitemap", job.Request.SitemapURL))

	fail := func(phase string, err error) {
		log.Error("job failed", zap.String("phase", phase), zap.Error(err))
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
	}

	// Phase 1: walk the sitemap tree.
	job.SetStatus(StatusWalking, "walking")
	walker, err := w.NewWalker(job.Request)
	if err != nil {
		fail("walking", err)
		return
	}
	locs, err := walker.Locations(ctx)
	if err != nil {
		fail("walking", err)
		return
	}
	job.SetLocations(len(locs))
	log.Info("sitemap walked", zap.Int("locations", len(locs)))

	// Phase 2: fetch pages and extract text.
	job.SetStatus(StatusFetching, "fetching")
	docs, err := walker.Fetch(ctx, locs)
	if err != nil {
		fail("fetching", err)
		return
	}
	pages := len(docs)
	log.Info("pages fetched", zap.Int("documents", pages))

	// Phase 3: split.
	if job.Request.Split {
		job.SetStatus(StatusSplitting, "splitting")
		docs = w.splitter(job.Request).SplitDocuments(docs)
		log.Info("documents split", zap.Int("chunks", len(docs)))
	}

	job.SetDocuments(docs, pages)
	job.SetStatus(StatusCompleted, "done")
}

// NewWalker builds a walker for req on top of the worker's fetch settings.
func (w *Worker) NewWalker(req Request) (*sitemap.Walker, error) {
	opts := w.cfg.Fetch
	opts.Headers = merged(opts.Headers, req.Headers)
	opts.Cookies = merged(opts.Cookies, req.Cookies)
	if opts.Logger == nil {
		opts.Logger = w.log
	}
	client, err := webbase.NewClient(opts)
	if err != nil {
		return nil, &sitemap.ConfigError{Field: "fetcher", Err: err}
	}

	ex, err := extract.ByName(req.Extractor, extract.Options{
		Selector:             req.Selector,
		PDFFallbackPdftotext: w.cfg.PDFFallback,
	})
	if err != nil {
		return nil, &sitemap.ConfigError{Field: "extractor", Err: err}
	}

	maxDepth := w.cfg.MaxDepth
	if req.MaxDepth > 0 {
		maxDepth = req.MaxDepth
	}
	wopts := []sitemap.Option{
		sitemap.WithFilters(req.Filters),
		sitemap.WithExtractor(ex),
		sitemap.WithMaxDepth(maxDepth),
		sitemap.WithLogger(w.log),
	}
	if req.BlockNum != nil {
		wopts = append(wopts, sitemap.WithBlock(req.BlockSize, *req.BlockNum))
	}
	return sitemap.New(req.SitemapURL, client, wopts...)
}

func (w *Worker) splitter(req Request) chunker.DocumentSplitter {
	cfg := w.cfg.Chunk
	if req.ChunkSize > 0 {
		cfg.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap != nil {
		cfg.ChunkOverlap = *req.ChunkOverlap
	}
	return chunker.DocumentSplitter{
		Config:   cfg,
		Markdown: strings.EqualFold(strings.TrimSpace(req.Extractor), extract.NameMarkdown),
	}
}

func merged(base, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}
