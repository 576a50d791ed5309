// ABOUTME: In-process background job queue with worker pool and periodic scheduler.
// ABOUTME: Handles upload post-processing, hourly blob cleanup, and health probes.

package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voxmesh/voxmesh-gateway/internal/blob"
	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
	"github.com/voxmesh/voxmesh-gateway/internal/store"
)

// Kind identifies a job handler.
type Kind string

const (
	KindProcessUpload Kind = "process_upload"
	KindCleanupFiles  Kind = "cleanup_old_files"
	KindHealthCheck   Kind = "health_check"
)

// Job is one unit of background work.
type Job struct {
	Kind   Kind
	FileID int64
}

// Config wires the queue's collaborators and schedule.
type Config struct {
	Store store.Store
	Blobs blob.ObjectStore

	Workers   int
	QueueSize int

	CleanupInterval time.Duration
	CleanupMaxAge   time.Duration
	HealthInterval  time.Duration

	Logger *slog.Logger
}

// Queue runs background jobs on a fixed worker pool. Periodic jobs are
// enqueued by an internal scheduler; one-off jobs via Enqueue.
type Queue struct {
	cfg  Config
	jobs chan Job
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// NewQueue creates a stopped queue.
func NewQueue(cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Queue{
		cfg:  cfg,
		jobs: make(chan Job, cfg.QueueSize),
	}
}

// Start launches the workers and the periodic scheduler.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.stop = context.WithCancel(ctx)

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	q.wg.Add(1)
	go q.schedule(ctx)

	q.cfg.Logger.Info("job queue started",
		"workers", q.cfg.Workers,
		"cleanup_interval", q.cfg.CleanupInterval,
		"health_interval", q.cfg.HealthInterval,
	)
}

// Stop cancels the scheduler and waits for in-flight jobs to finish.
// Queued but unstarted jobs are dropped; all job kinds are safe to
// re-run on the next start.
func (q *Queue) Stop() {
	if q.stop != nil {
		q.stop()
	}
	q.wg.Wait()
}

// Enqueue submits a job. Returns false when the queue is full; callers
// treat that as a dropped best-effort job, not an error.
func (q *Queue) Enqueue(job Job) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		q.cfg.Logger.Warn("job queue full, dropping job", "kind", job.Kind)
		metrics.JobsProcessed.WithLabelValues(string(job.Kind), "dropped").Inc()
		return false
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.run(ctx, job)
		}
	}
}

func (q *Queue) schedule(ctx context.Context) {
	defer q.wg.Done()

	cleanup := time.NewTicker(q.cfg.CleanupInterval)
	defer cleanup.Stop()
	health := time.NewTicker(q.cfg.HealthInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			q.Enqueue(Job{Kind: KindCleanupFiles})
		case <-health.C:
			q.Enqueue(Job{Kind: KindHealthCheck})
		}
	}
}

func (q *Queue) run(ctx context.Context, job Job) {
	var err error
	switch job.Kind {
	case KindProcessUpload:
		err = q.processUpload(ctx, job.FileID)
	case KindCleanupFiles:
		err = q.cleanupOldFiles(ctx)
	case KindHealthCheck:
		err = q.healthCheck(ctx)
	default:
		q.cfg.Logger.Warn("unknown job kind", "kind", job.Kind)
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		q.cfg.Logger.Error("job failed", "kind", job.Kind, "error", err)
	}
	metrics.JobsProcessed.WithLabelValues(string(job.Kind), outcome).Inc()
}

// processUpload runs post-upload processing for a stored file. The row
// may already be gone if the upload was deleted immediately; that is
// not a failure.
func (q *Queue) processUpload(ctx context.Context, fileID int64) error {
	f, err := q.cfg.Store.GetFileUpload(ctx, fileID)
	if err == store.ErrNotFound {
		q.cfg.Logger.Debug("upload vanished before processing", "file_id", fileID)
		return nil
	}
	if err != nil {
		return err
	}

	q.cfg.Logger.Info("processed file upload",
		"file_id", f.ID,
		"filename", f.Filename,
		"key", f.Key,
		"size", f.FileSize,
	)
	return nil
}

// cleanupOldFiles deletes uploads older than the retention window,
// blob first, then the metadata row.
func (q *Queue) cleanupOldFiles(ctx context.Context) error {
	cutoff := time.Now().Add(-q.cfg.CleanupMaxAge)
	old, err := q.cfg.Store.ListFileUploadsOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	cleaned := 0
	for _, f := range old {
		if err := q.cfg.Blobs.Delete(ctx, f.Key); err != nil {
			q.cfg.Logger.Warn("blob cleanup failed", "key", f.Key, "error", err)
			continue
		}
		if err := q.cfg.Store.DeleteFileUpload(ctx, f.ID); err != nil && err != store.ErrNotFound {
			q.cfg.Logger.Warn("upload row cleanup failed", "file_id", f.ID, "error", err)
			continue
		}
		cleaned++
	}

	if cleaned > 0 {
		q.cfg.Logger.Info("cleaned up old uploads", "count", cleaned, "cutoff", cutoff)
	}
	return nil
}

// healthCheck probes the store with a cheap read.
func (q *Queue) healthCheck(ctx context.Context) error {
	if _, err := q.cfg.Store.ListItems(ctx, 0, 1); err != nil {
		return err
	}
	q.cfg.Logger.Debug("health check passed")
	return nil
}
