package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/sitegest/internal/config"
	"github.com/dgallion1/sitegest/internal/logging"
	"github.com/dgallion1/sitegest/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the flags shared by every subcommand.
type options struct {
	filters   []string
	blockSize int
	blockNum  int
	maxDepth  int
	headers   map[string]string
	cookies   map[string]string

	proxy         string
	proxyUser     string
	proxyPassword string

	extractor    string
	selector     string
	split        bool
	chunkSize    int
	chunkOverlap int

	output   string
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sitemap",
		Short:         "Walk a sitemap and load its pages as documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringArrayVar(&opts.filters, "filter", nil, "regular expression a location must match at its start (repeatable)")
	f.IntVar(&opts.blockSize, "blocksize", 0, "split locations into blocks of this size")
	f.IntVar(&opts.blockNum, "blocknum", 0, "zero-based block to keep when --blocksize is set")
	f.IntVar(&opts.maxDepth, "max-depth", 0, "maximum sitemap index nesting (0 = unlimited)")
	f.StringToStringVar(&opts.headers, "header", nil, "extra request header as name=value (repeatable)")
	f.StringToStringVar(&opts.cookies, "cookie", nil, "request cookie as name=value (repeatable)")
	f.StringVar(&opts.proxy, "proxy", "", "proxy URL (overrides PROXY_URL)")
	f.StringVar(&opts.proxyUser, "proxy-user", "", "proxy user (overrides PROXY_USER)")
	f.StringVar(&opts.proxyPassword, "proxy-password", "", "proxy password (overrides PROXY_PASSWORD)")
	f.StringVarP(&opts.output, "output", "o", "", "write JSON lines to this file instead of stdout")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	load := &cobra.Command{
		Use:   "load <sitemap-url>",
		Short: "Fetch every location and print one document per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0])
		},
	}
	lf := load.Flags()
	lf.StringVar(&opts.extractor, "extractor", "text", "text extractor: text, markdown, selector or structured")
	lf.StringVar(&opts.selector, "selector", "", "CSS selector for --extractor=selector")
	lf.BoolVar(&opts.split, "split", false, "split page documents into chunks")
	lf.IntVar(&opts.chunkSize, "chunk-size", 0, "chunk size in tokens (default DEFAULT_CHUNK_SIZE)")
	lf.IntVar(&opts.chunkOverlap, "chunk-overlap", 0, "chunk overlap in tokens (default DEFAULT_CHUNK_OVERLAP)")

	locations := &cobra.Command{
		Use:   "locations <sitemap-url>",
		Short: "Print the location records of a sitemap without fetching pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocations(cmd, opts, args[0])
		},
	}

	root.AddCommand(load, locations)
	return root
}

// setup loads configuration, applies flag overrides and builds the worker
// that both subcommands drive.
func setup(cmd *cobra.Command, opts *options) (*pipeline.Worker, *zap.Logger, error) {
	cfg := config.Load()
	f := cmd.Flags()
	if f.Changed("proxy") {
		cfg.ProxyURL = opts.proxy
	}
	if f.Changed("proxy-user") {
		cfg.ProxyUser = opts.proxyUser
	}
	if f.Changed("proxy-password") {
		cfg.ProxyPassword = opts.proxyPassword
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.ValidateFetch(); err != nil {
		return nil, nil, err
	}

	log := logging.NewLogger(logging.NewStderrPlugin(logging.ParseLevel(cfg.LogLevel)))
	return pipeline.NewWorker(pipeline.WorkerConfigFrom(cfg, nil, log), log), log, nil
}

func (o *options) request(sitemapURL string, cmd *cobra.Command) pipeline.Request {
	req := pipeline.Request{
		SitemapURL: sitemapURL,
		Filters:    o.filters,
		MaxDepth:   o.maxDepth,
		Extractor:  o.extractor,
		Selector:   o.selector,
		Split:      o.split,
		ChunkSize:  o.chunkSize,
		Headers:    o.headers,
		Cookies:    o.cookies,
	}
	if cmd.Flags().Changed("chunk-overlap") {
		n := o.chunkOverlap
		req.ChunkOverlap = &n
	}
	if cmd.Flags().Changed("blocksize") {
		n := o.blockNum
		req.BlockSize = o.blockSize
		req.BlockNum = &n
	}
	return req
}

func runLoad(cmd *cobra.Command, opts *options, sitemapURL string) error {
	worker, log, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	req := opts.request(sitemapURL, cmd)
	if err := req.Validate(); err != nil {
		return err
	}
	job := pipeline.NewJob(req)
	worker.Process(cmd.Context(), job)

	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		return fmt.Errorf("load failed: %v", snap.Progress.Errors)
	}

	docs := job.Documents()
	return writeLines(cmd, opts.output, len(docs), func(i int) any { return docs[i] })
}

func runLocations(cmd *cobra.Command, opts *options, sitemapURL string) error {
	worker, log, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	req := opts.request(sitemapURL, cmd)
	if err := req.Validate(); err != nil {
		return err
	}
	walker, err := worker.NewWalker(req)
	if err != nil {
		return err
	}
	recs, err := walker.Locations(cmd.Context())
	if err != nil {
		return err
	}
	return writeLines(cmd, opts.output, len(recs), func(i int) any { return recs[i] })
}

// writeLines encodes n values as JSON lines to path, or to the command's
// output when path is empty.
func writeLines(cmd *cobra.Command, path string, n int, at func(int) any) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range n {
		if err := enc.Encode(at(i)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
