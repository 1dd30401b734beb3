package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds the worker pool settings
type Config struct {
	Workers    int           // long-running workers
	LaneSize   int           // buffered jobs per priority
	MaxBurst   int           // extra goroutines started for jobs without DontFork
	JobTimeout time.Duration // per-job deadline, zero disables it
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		LaneSize:   1000,
		MaxBurst:   2,
		JobTimeout: 2 * time.Minute,
	}
}

// Queue is an in-process priority job queue with a fixed worker pool.
// Enqueue never blocks; the most urgent non-empty lane is always served first.
type Queue struct {
	ctx      context.Context
	cancel   context.CancelFunc
	handlers map[string]Handler
	pending  map[string]string // dedupe key -> job id
	wake     chan struct{}
	burst    chan struct{}
	lanes    [numPriorities]chan *Job
	cfg      Config
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// NewQueue creates a queue; call Start to run its workers
func NewQueue(cfg Config) *Queue {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.LaneSize <= 0 {
		cfg.LaneSize = def.LaneSize
	}
	if cfg.MaxBurst < 0 {
		cfg.MaxBurst = 0
	}

	q := &Queue{
		cfg:      cfg,
		handlers: make(map[string]Handler),
		pending:  make(map[string]string),
		wake:     make(chan struct{}, cfg.Workers),
		burst:    make(chan struct{}, cfg.MaxBurst),
	}
	for i := range q.lanes {
		q.lanes[i] = make(chan *Job, cfg.LaneSize)
	}
	return q
}

// Register binds a handler to a job name, replacing any previous one
func (q *Queue) Register(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Enqueue submits a job and returns its id without waiting for it to run.
// An identical pending job (same name and args) is not queued twice; its id
// is returned instead.
func (q *Queue) Enqueue(opts Options, name string, args ...string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if opts.Priority < 0 || int(opts.Priority) >= numPriorities {
		return "", fmt.Errorf("%w: %d", ErrInvalidPriority, opts.Priority)
	}

	key := dedupeKey(name, args)

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return "", ErrQueueStopped
	}
	if id, ok := q.pending[key]; ok {
		q.mu.Unlock()
		jobsDeduplicated.WithLabelValues(name).Inc()
		return id, nil
	}

	job := &Job{
		ID:         uuid.NewString(),
		Name:       name,
		Args:       append([]string(nil), args...),
		Options:    opts,
		EnqueuedAt: time.Now().UTC(),
	}

	select {
	case q.lanes[opts.Priority] <- job:
	default:
		q.mu.Unlock()
		jobsDropped.WithLabelValues(name, opts.Priority.String()).Inc()
		return "", ErrQueueFull
	}
	q.pending[key] = job.ID

	fork := false
	if q.started && !opts.DontFork {
		select {
		case q.burst <- struct{}{}:
			q.wg.Add(1)
			fork = true
		default:
		}
	}
	ctx := q.ctx
	q.mu.Unlock()

	jobsEnqueued.WithLabelValues(name, opts.Priority.String()).Inc()

	if fork {
		go func() {
			defer q.wg.Done()
			defer func() { <-q.burst }()
			if next := q.next(); next != nil {
				q.execute(ctx, next)
			}
		}()
	} else {
		q.notify()
	}

	return job.ID, nil
}

// Start launches the workers. Jobs enqueued before Start are kept.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}

	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(q.ctx)
	}
	slog.Info("job queue started", "workers", q.cfg.Workers, "lane_size", q.cfg.LaneSize)
}

// Stop rejects new jobs, lets running jobs finish and discards the rest
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()

	q.wg.Wait()

	if left := q.Pending(); left > 0 {
		slog.Warn("job queue stopped with pending jobs", "pending", left)
	}
}

// Pending returns the number of queued jobs that have not started
func (q *Queue) Pending() int {
	n := 0
	for i := range q.lanes {
		n += len(q.lanes[i])
	}
	return n
}

// RunPending runs queued jobs on the calling goroutine until the queue is
// empty. Used by one-shot tools that have no worker pool.
func (q *Queue) RunPending(ctx context.Context) int {
	n := 0
	for job := q.next(); job != nil; job = q.next() {
		q.execute(ctx, job)
		n++
	}
	return n
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		if job := q.next(); job != nil {
			q.execute(ctx, job)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// next pops the most urgent queued job, or nil
func (q *Queue) next() *Job {
	for i := range q.lanes {
		select {
		case job := <-q.lanes[i]:
			return job
		default:
		}
	}
	return nil
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) execute(ctx context.Context, job *Job) {
	q.mu.Lock()
	delete(q.pending, dedupeKey(job.Name, job.Args))
	handler := q.handlers[job.Name]
	q.mu.Unlock()

	if handler == nil {
		jobsFinished.WithLabelValues(job.Name, "unknown").Inc()
		slog.Error("no handler registered for job", "job", job.Name, "id", job.ID)
		return
	}

	// A running job outlives Stop; only the timeout bounds it
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx := context.WithoutCancel(ctx)
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, q.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := runHandler(runCtx, handler, job)
	jobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		jobsFinished.WithLabelValues(job.Name, "failed").Inc()
		slog.Error("job failed",
			"job", job.Name,
			"id", job.ID,
			"args", job.Args,
			"priority", job.Options.Priority.String(),
			"error", err,
		)
		return
	}

	jobsFinished.WithLabelValues(job.Name, "ok").Inc()
	slog.Debug("job done", "job", job.Name, "id", job.ID, "duration", time.Since(start))
}

func runHandler(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return handler(ctx, job.Args)
}

func dedupeKey(name string, args []string) string {
	return name + "\x00" + strings.Join(args, "\x00")
}
