package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Fetching
	UserAgent          string
	FetchTimeout       time.Duration
	MaxConcurrentFetch int
	MaxBodyBytes       int64
	MaxSitemapDepth    int

	// Proxy, passed through to every request.
	ProxyURL      string
	ProxyUser     string
	ProxyPassword string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SITEGEST_API_KEY"),

		UserAgent:          os.Getenv("USER_AGENT"),
		FetchTimeout:       envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxConcurrentFetch: envInt("MAX_CONCURRENT_FETCH", 4),
		MaxBodyBytes:       envInt64("MAX_BODY_BYTES", 52428800), // 50MB
		MaxSitemapDepth:    envInt("MAX_SITEMAP_DEPTH", 0),

		ProxyURL:      os.Getenv("PROXY_URL"),
		ProxyUser:     os.Getenv("PROXY_USER"),
		ProxyPassword: os.Getenv("PROXY_PASSWORD"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1500),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentFetch <= 0 {
		cfg.MaxConcurrentFetch = 4
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 52428800
	}
	if cfg.MaxSitemapDepth < 0 {
		cfg.MaxSitemapDepth = 0
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1500
	}
	if cfg.DefaultChunkOverlap < 0 {
		cfg.DefaultChunkOverlap = 200
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SITEGEST_API_KEY is required")
	}
	return c.ValidateFetch()
}

// ValidateFetch checks only the fetch settings; the CLI needs no API key.
func (c Config) ValidateFetch() error {
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("PROXY_URL is not a valid URL: %q", c.ProxyURL)
		}
	}
	if c.ProxyUser == "" && c.ProxyPassword != "" {
		return fmt.Errorf("PROXY_PASSWORD is set without PROXY_USER")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
