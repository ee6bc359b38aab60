package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dgallion1/sitegest/internal/sitemap"
	"github.com/google/uuid"
)

// JobStatus represents the state of a sitemap load.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusWalking   JobStatus = "walking"
	StatusFetching  JobStatus = "fetching"
	StatusSplitting JobStatus = "splitting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Request describes one sitemap load. Block selection applies when BlockNum
// is set; BlockSize must then be positive. A nil ChunkOverlap keeps the
// service default, while an explicit 0 disables overlap.
type Request struct {
	SitemapURL string   `json:"sitemap_url"`
	Filters    []string `json:"filters,omitempty"`
	BlockSize  int      `json:"block_size,omitempty"`
	BlockNum   *int     `json:"block_num,omitempty"`
	MaxDepth   int      `json:"max_depth,omitempty"`

	Extractor string `json:"extractor,omitempty"` // text, markdown, selector, structured
	Selector  string `json:"selector,omitempty"`

	Split        bool `json:"split,omitempty"`
	ChunkSize    int  `json:"chunk_size,omitempty"`
	ChunkOverlap *int `json:"chunk_overlap,omitempty"`

	Headers map[string]string `json:"headers,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Validate checks the fields the walker does not check itself.
func (r Request) Validate() error {
	if r.SitemapURL == "" {
		return errors.New("sitemap_url is required")
	}
	u, err := url.Parse(r.SitemapURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sitemap_url must be an absolute http(s) url: %q", r.SitemapURL)
	}
	if r.ChunkSize < 0 || (r.ChunkOverlap != nil && *r.ChunkOverlap < 0) {
		return errors.New("chunk_size and chunk_overlap must not be negative")
	}
	if r.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", r.MaxDepth)
	}
	return nil
}

// Job tracks the state of a single sitemap load.
type Job struct {
	mu sync.Mutex

	ID      string
	Request Request

	Status   JobStatus
	Phase    string
	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	documents []sitemap.Document
	errors    []string
}

// Progress tracks processing progress.
type Progress struct {
	Locations int      `json:"locations"`
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
	Errors    []string `json:"errors"`
}

func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs not updated within the TTL, documents included.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

func (j *Job) SetLocations(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Locations = n
	j.UpdatedAt = time.Now()
}

// SetDocuments stores the job result. pages is the number of fetched pages;
// for split jobs docs holds the chunks.
func (j *Job) SetDocuments(docs []sitemap.Document, pages int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.documents = docs
	j.Progress.Documents = pages
	if j.Request.Split {
		j.Progress.Chunks = len(docs)
	}
	j.UpdatedAt = time.Now()
}

// Documents returns the loaded documents. The slice must not be modified.
func (j *Job) Documents() []sitemap.Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.documents
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	SitemapURL string    `json:"sitemap_url"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:         j.ID,
		SitemapURL: j.Request.SitemapURL,
		Status:     j.Status,
		Phase:      j.Phase,
		Progress: Progress{
			Locations: j.Progress.Locations,
			Documents: j.Progress.Documents,
			Chunks:    j.Progress.Chunks,
			Errors:    errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// Done reports whether the job reached a terminal status.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
