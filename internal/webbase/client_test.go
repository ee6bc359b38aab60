package webbase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc></url>
</urlset>`

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func TestScrape_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title>Hi</title></head><body><p>Hello</p></body></html>")
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	page, err := c.Scrape(context.Background(), srv.URL, FormatHTML)
	require.NoError(t, err)
	require.NotNil(t, page.HTML)
	assert.Nil(t, page.XML)
	assert.Equal(t, "Hi", page.HTML.Find("title").Text())
	assert.Equal(t, "text/html", page.MediaType())
	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestScrape_XML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleSitemap)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	page, err := c.Scrape(context.Background(), srv.URL, FormatXML)
	require.NoError(t, err)
	require.NotNil(t, page.XML)
	assert.Nil(t, page.HTML)
}

func TestScrape_GzipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleSitemap))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	page, err := c.Scrape(context.Background(), srv.URL+"/sitemap.xml.gz", FormatXML)
	require.NoError(t, err)
	assert.Contains(t, string(page.Body), "<urlset")
	require.NotNil(t, page.XML)
}

func TestScrape_HeadersAndCookies(t *testing.T) {
	var gotUA, gotCustom, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	c := newTestClient(t, Options{
		Headers: map[string]string{"user-agent": "sitegest-test", "x-custom": "1"},
		Cookies: map[string]string{"session": "abc"},
	})
	_, err := c.Scrape(context.Background(), srv.URL, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "sitegest-test", gotUA)
	assert.Equal(t, "1", gotCustom)
	assert.Equal(t, "abc", gotCookie)
}

func TestScrape_DefaultHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	_, err := c.Scrape(context.Background(), srv.URL, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, DefaultHeaders["User-Agent"], got.Get("User-Agent"))
	assert.Equal(t, DefaultHeaders["Accept-Language"], got.Get("Accept-Language"))
}

func TestScrape_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	_, err := c.Scrape(context.Background(), srv.URL, FormatHTML)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, fe.Error(), "status 404")
}

func TestScrape_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	c := newTestClient(t, Options{MaxBodyBytes: 10})
	_, err := c.Scrape(context.Background(), srv.URL, FormatHTML)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestScrape_XMLParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<urlset><<broken")
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	_, err := c.Scrape(context.Background(), srv.URL, FormatXML)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FormatXML, pe.Format)
}

func TestScrape_ProxyAuth(t *testing.T) {
	var gotAuth, gotTarget string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Proxy-Authorization")
		gotTarget = r.URL.String()
		fmt.Fprint(w, "<p>via proxy</p>")
	}))
	defer proxy.Close()

	c := newTestClient(t, Options{ProxyURL: proxy.URL, ProxyUser: "user", ProxyPassword: "pass"})
	page, err := c.Scrape(context.Background(), "http://upstream.test/page", FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "via proxy", page.HTML.Find("p").Text())
	assert.Equal(t, "http://upstream.test/page", gotTarget)
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "), "got %q", gotAuth)
}

func TestNewClient_InvalidProxy(t *testing.T) {
	_, err := NewClient(Options{ProxyURL: "::nope"})
	require.Error(t, err)
}

func TestScrapeAll_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Earlier paths answer later so completion order differs from input order.
		switch r.URL.Path {
		case "/0":
			time.Sleep(30 * time.Millisecond)
		case "/1":
			time.Sleep(15 * time.Millisecond)
		}
		fmt.Fprintf(w, "<p>%s</p>", r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/0", srv.URL + "/1", srv.URL + "/2"}
	c := newTestClient(t, Options{MaxConcurrent: 3})
	pages, err := c.ScrapeAll(context.Background(), urls, FormatHTML)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, urls[i], p.URL)
		assert.Equal(t, fmt.Sprintf("/%d", i), p.HTML.Find("p").Text())
	}
}

func TestScrapeAll_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}
	c := newTestClient(t, Options{MaxConcurrent: 2})
	_, err := c.ScrapeAll(context.Background(), urls, FormatHTML)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestScrapeAll_FailsOnAnyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	pages, err := c.ScrapeAll(context.Background(), []string{srv.URL + "/ok", srv.URL + "/bad"}, FormatHTML)
	require.Error(t, err)
	assert.Nil(t, pages)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
}

func TestScrape_RecordsStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	stats := NewStats(time.Hour)
	c := newTestClient(t, Options{Stats: stats})
	_, _ = c.Scrape(context.Background(), srv.URL+"/ok", FormatHTML)
	_, _ = c.Scrape(context.Background(), srv.URL+"/bad", FormatHTML)

	snap := stats.Snapshot()
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, 1, snap.Failures)
}
