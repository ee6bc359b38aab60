package webbase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultHeaders are sent with every request unless overridden.
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Referer":         "https://www.google.com/",
	"DNT":             "1",
	"Connection":      "keep-alive",
}

var ErrBodyTooLarge = errors.New("response body exceeds limit")

type Options struct {
	Headers map[string]string
	Cookies map[string]string

	ProxyURL      string
	ProxyUser     string
	ProxyPassword string

	Timeout       time.Duration
	MaxBodyBytes  int64
	MaxConcurrent int

	// HTTPClient replaces the client built from Timeout and the proxy
	// settings. Headers and cookies still apply.
	HTTPClient *http.Client

	Stats  *Stats
	Logger *zap.Logger
}

// Client fetches pages and parses them as HTML or XML.
type Client struct {
	httpClient    *http.Client
	headers       map[string]string
	cookies       map[string]string
	maxBodyBytes  int64
	maxConcurrent int
	stats         *Stats
	log           *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.ProxyURL != "" {
			pu, err := url.Parse(opts.ProxyURL)
			if err != nil || pu.Host == "" {
				return nil, fmt.Errorf("invalid proxy url %q", opts.ProxyURL)
			}
			if opts.ProxyUser != "" {
				pu.User = url.UserPassword(opts.ProxyUser, opts.ProxyPassword)
			}
			transport.Proxy = http.ProxyURL(pu)
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}

	headers := make(map[string]string, len(DefaultHeaders)+len(opts.Headers))
	for k, v := range DefaultHeaders {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range opts.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	maxConc := opts.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		httpClient:    hc,
		headers:       headers,
		cookies:       opts.Cookies,
		maxBodyBytes:  opts.MaxBodyBytes,
		maxConcurrent: maxConc,
		stats:         opts.Stats,
		log:           log,
	}, nil
}

// Scrape fetches rawURL and parses the body in the given format.
func (c *Client) Scrape(ctx context.Context, rawURL string, format Format) (*Page, error) {
	start := time.Now()
	page, err := c.scrape(ctx, rawURL, format)
	elapsed := time.Since(start)
	if c.stats != nil {
		c.stats.Record(elapsed, err != nil)
	}
	if err != nil {
		c.log.Debug("fetch failed", zap.String("url", rawURL), zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}
	c.log.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.Body)),
		zap.Duration("elapsed", elapsed),
	)
	return page, nil
}

// ScrapeAll fetches urls concurrently and returns pages in input order. The
// first failure cancels the remaining requests.
func (c *Client) ScrapeAll(ctx context.Context, urls []string, format Format) ([]*Page, error) {
	pages := make([]*Page, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, u := range urls {
		g.Go(func() error {
			p, err := c.Scrape(gctx, u, format)
			if err != nil {
				return err
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (c *Client) scrape(ctx context.Context, rawURL string, format Format) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", bytes.TrimSpace(snippet)),
		}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	body, err = maybeGunzip(body, c.maxBodyBytes)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Format:      format,
	}
	if err := parsePage(page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBodyBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

// maybeGunzip inflates gzip payloads such as sitemap.xml.gz files served
// without a Content-Encoding header.
func maybeGunzip(body []byte, limit int64) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	var r io.Reader = zr
	if limit > 0 {
		r = io.LimitReader(zr, limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}
