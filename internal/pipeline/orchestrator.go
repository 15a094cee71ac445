package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// ErrQueueFull is returned by Submit when the job backlog is at capacity.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator runs analysis jobs in the background.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	pool     *ants.Pool
	analyzer *Analyzer
	latency  *RunLatency
	log      *slog.Logger
	cfg      config.Config

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Jobs wait in a bounded queue and
// run on a pool of WorkerCount workers.
func NewOrchestrator(cfg config.Config, analyzer *Analyzer, log *slog.Logger) (*Orchestrator, error) {
	pool, err := ants.NewPool(cfg.WorkerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		pool:     pool,
		analyzer: analyzer,
		latency:  NewRunLatency(cfg.JobTTL),
		log:      log,
		cfg:      cfg,
	}, nil
}

// Start launches the dispatcher and the job store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		var running sync.WaitGroup
		defer running.Wait()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				running.Add(1)
				err := o.pool.Submit(func() {
					defer running.Done()
					o.run(workerCtx, job)
				})
				if err != nil {
					running.Done()
					job.AddError(err.Error())
					job.SetStatus(StatusFailed, "dispatch")
				}
			}
		}
	}()

	// Start job store cleanup.
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

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.pool.Release()
}

// Submit queues a new analysis and returns its job.
func (o *Orchestrator) Submit(in RunInput) (*Job, error) {
	if len(in.Sources) == 0 {
		return nil, ErrNoSources
	}
	job := NewJob(uuid.NewString(), in)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, errors.New("orchestrator stopped")
	}
	select {
	case o.queue <- job:
		o.jobs.Put(job)
		return job, nil
	default:
		return nil, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// ListJobs returns every tracked job, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	return o.jobs.List()
}

// DeleteJob forgets a job. A running job still finishes.
func (o *Orchestrator) DeleteJob(id string) bool {
	return o.jobs.Delete(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats describes the orchestrator's load.
type Stats struct {
	QueueDepth    int `json:"queue_depth"`
	QueueCapacity int `json:"queue_capacity"`
	Workers       int `json:"workers"`
	Running       int `json:"running"`
	Jobs          int `json:"jobs"`

	Latency LatencySnapshot `json:"latency"`
}

// Stats returns a point-in-time view of queue and pool usage.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		QueueDepth:    len(o.queue),
		QueueCapacity: cap(o.queue),
		Workers:       o.pool.Cap(),
		Running:       o.pool.Running(),
		Jobs:          o.jobs.Len(),
		Latency:       o.latency.Snapshot(),
	}
}
