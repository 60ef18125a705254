// Package ingest indexes the JPEG files under a directory through a worker
// pool, skipping files already indexed unchanged, and can keep indexing new
// files as they appear.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/visualsearch/pkg/client"
	"github.com/papercomputeco/visualsearch/pkg/dotdir"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Indexer stores one image. *client.Client implements it.
type Indexer interface {
	Index(ctx context.Context, req client.IndexRequest) (string, error)
}

// Job is one file to index.
type Job struct {
	Path string
}

// Stats counts what a pool did with the jobs it was given.
type Stats struct {
	Queued  int64
	Indexed int64
	Skipped int64
	Failed  int64
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Indexer receives the bytes of each file.
	Indexer Indexer

	// Manifest records indexed files. Files it lists unchanged are skipped.
	// Optional.
	Manifest *dotdir.Manifest

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool indexes files asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards config.Manifest and inflight
	mu       sync.Mutex
	inflight map[string]bool

	queued  atomic.Int64
	indexed atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// NewPool creates a new Pool and starts its worker goroutines. Workers run
// their index requests with ctx.
func NewPool(ctx context.Context, c *Config) (*Pool, error) {
	if c.Indexer == nil {
		return nil, fmt.Errorf("indexer is required")
	}
	if c.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config:   c,
		queue:    make(chan Job, c.QueueSize),
		logger:   c.Logger,
		inflight: make(map[string]bool),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(ctx, i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool, waiting for queue
// space. Returns false if ctx is done first.
func (p *Pool) Enqueue(ctx context.Context, job Job) bool {
	select {
	case p.queue <- job:
		p.queued.Add(1)
		p.logger.Debug("job queued", "path", job.Path)
		return true
	case <-ctx.Done():
		p.logger.Warn("job not queued, ingest cancelled", "path", job.Path)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() Stats {
	close(p.queue)
	p.wg.Wait()
	return p.Stats()
}

// Stats returns the counts so far.
func (p *Pool) Stats() Stats {
	return Stats{
		Queued:  p.queued.Load(),
		Indexed: p.indexed.Load(),
		Skipped: p.skipped.Load(),
		Failed:  p.failed.Load(),
	}
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(ctx context.Context, id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(ctx, job)
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}

// processJob reads a file and indexes it unless the manifest already lists it
// unchanged.
func (p *Pool) processJob(ctx context.Context, job Job) {
	info, err := os.Stat(job.Path)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("cannot stat file", "path", job.Path, "error", err)
		return
	}

	// Created files are seen before their first write.
	if info.Size() == 0 {
		p.skipped.Add(1)
		p.logger.Debug("file empty, skipping", "path", job.Path)
		return
	}

	if !p.claim(job.Path, info) {
		p.skipped.Add(1)
		p.logger.Debug("file unchanged, skipping", "path", job.Path)
		return
	}
	defer p.release(job.Path)

	data, err := os.ReadFile(job.Path)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("cannot read file", "path", job.Path, "error", err)
		return
	}

	id, err := p.config.Indexer.Index(ctx, client.IndexRequest{Image: data})
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("indexing file failed", "path", job.Path, "error", err)
		return
	}

	p.record(job.Path, id, info)
	p.indexed.Add(1)
	p.logger.Info("image indexed", "path", job.Path, "id", id)
}

// claim marks path as being indexed. It returns false when another worker
// holds it or the manifest lists it unchanged.
func (p *Pool) claim(path string, info os.FileInfo) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inflight[path] {
		return false
	}
	if p.config.Manifest != nil && p.config.Manifest.Unchanged(path, info.Size(), info.ModTime()) {
		return false
	}
	p.inflight[path] = true
	return true
}

func (p *Pool) release(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, path)
}

func (p *Pool) record(path, id string, info os.FileInfo) {
	if p.config.Manifest == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Manifest.Files[path] = dotdir.IngestedFile{
		ID:        id,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IndexedAt: time.Now().UTC(),
	}
}
