package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/sitegest/internal/chunker"
	"github.com/dgallion1/sitegest/internal/config"
	"github.com/dgallion1/sitegest/internal/sitemap"
	"github.com/dgallion1/sitegest/internal/webbase"
	"go.uber.org/zap"
)

// Orchestrator queues sitemap jobs and runs them on a fixed pool of workers.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *zap.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex // guards stopped and sends on queue
	stopped bool
}

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("orchestrator is stopped")

// NewOrchestrator creates the pipeline. Call Start to run workers.
func NewOrchestrator(cfg config.Config, stats *webbase.Stats, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(WorkerConfigFrom(cfg, stats, log), log),
		log:    log,
		cfg:    cfg,
	}
}

// WorkerConfigFrom derives worker settings from the service configuration.
func WorkerConfigFrom(cfg config.Config, stats *webbase.Stats, log *zap.Logger) WorkerConfig {
	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return WorkerConfig{
		Fetch: webbase.Options{
			Headers:       headers,
			ProxyURL:      cfg.ProxyURL,
			ProxyUser:     cfg.ProxyUser,
			ProxyPassword: cfg.ProxyPassword,
			Timeout:       cfg.FetchTimeout,
			MaxBodyBytes:  cfg.MaxBodyBytes,
			MaxConcurrent: cfg.MaxConcurrentFetch,
			Stats:         stats,
			Logger:        log,
		},
		MaxDepth:    cfg.MaxSitemapDepth,
		PDFFallback: cfg.PDFFallbackPdftotext,
		Chunk: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
		},
	}
}

// Start launches worker goroutines and the job cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels running jobs and waits for the workers to exit. Jobs still
// waiting in the queue are marked failed. Later calls are no-ops.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()

	for job := range o.queue {
		job.AddError("shutdown: job was not started")
		job.SetStatus(StatusFailed, "shutdown")
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", zap.String("job_id", job.ID), zap.String("sitemap", job.Request.SitemapURL))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Check reports whether req would produce a runnable walker. It performs no
// network access, so block ranges are only checked once the job runs.
func (o *Orchestrator) Check(req Request) error {
	if err := req.Validate(); err != nil {
		return &sitemap.ConfigError{Field: "request", Err: err}
	}
	_, err := o.worker.NewWalker(req)
	return err
}

// Locations walks req's sitemap synchronously without fetching any page.
func (o *Orchestrator) Locations(ctx context.Context, req Request) ([]sitemap.LocationRecord, error) {
	w, err := o.worker.NewWalker(req)
	if err != nil {
		return nil, err
	}
	return w.Locations(ctx)
}
