package threadpool

import (
	"log/slog"
	"sync"
	"sync/atomic"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/common/validation"
	"github.com/vnykmshr/webpool/pkg/metrics"
)

// DefaultName labels pools created without a Config.Name.
const DefaultName = "default"

// Config holds configuration options for creating a pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Name identifies the pool in logs and metric labels.
	Name string

	// Logger receives diagnostic output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics is the registry pool metrics are published to. Nil disables metrics.
	Metrics *metrics.Registry

	// PanicHandler is called with the recovered value when a job panics.
	// The worker keeps running either way.
	PanicHandler func(workerID int, recovered interface{})

	// OnWorkerStart is called from each worker goroutine before it first
	// receives. New does not return until every call has finished.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called from each worker goroutine after it has
	// received Terminate.
	OnWorkerStop func(workerID int)
}

// Pool is a fixed set of workers fed by one control channel.
//
// A Pool must be shut down exactly once by its owner; a pool that is never
// shut down leaks its worker goroutines.
type Pool struct {
	config  Config
	logger  *slog.Logger
	metrics *instrumentation

	workers []*worker
	rx      *sharedReceiver

	// mu guards tx: Submit holds it shared, Shutdown exclusively.
	mu sync.RWMutex
	tx *sender

	shutdownOnce sync.Once

	live      atomic.Int64
	active    atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Size      int
	Live      int
	Active    int
	Pending   int
	Submitted int64
	Completed int64
	Panicked  int64
}

// New creates a pool with size workers. It panics if size is not positive.
func New(size int) *Pool {
	return NewWithConfig(Config{WorkerCount: size})
}

// NewWithConfig creates a pool from config. Every worker is running its
// receive loop by the time it returns. It panics with a
// *errors.ValidationError if WorkerCount is not positive.
func NewWithConfig(config Config) *Pool {
	if err := validation.ValidatePositive("threadpool", "WorkerCount", config.WorkerCount); err != nil {
		panic(err)
	}

	if config.Name == "" {
		config.Name = DefaultName
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tx, rx := newChannel()

	p := &Pool{
		config:  config,
		logger:  logger.With("pool", config.Name),
		metrics: newInstrumentation(config.Name, config.Metrics),
		rx:      newSharedReceiver(rx),
		tx:      tx,
	}
	p.metrics.poolStarted(config.WorkerCount)

	var started sync.WaitGroup
	started.Add(config.WorkerCount)

	p.workers = make([]*worker, 0, config.WorkerCount)
	for id := 0; id < config.WorkerCount; id++ {
		p.workers = append(p.workers, newWorker(id, p, p.rx, started.Done))
	}
	started.Wait()

	p.logger.Debug("thread pool started", "workers", config.WorkerCount)
	return p
}

// Submit queues job for execution by the first idle worker and returns
// without waiting for it to run. The queue is unbounded.
//
// Submit panics if job is nil or the pool has been shut down.
func (p *Pool) Submit(job Job) {
	if job == nil {
		panic(wperrors.NewValidationError("threadpool", "job", nil, "cannot be nil").
			WithHint("submit a non-nil func()"))
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.tx == nil {
		panic(wperrors.NewOperationError("threadpool", "Submit", wperrors.ErrClosed).
			WithContext("pool has been shut down"))
	}

	p.submitted.Add(1)
	p.metrics.jobSubmitted()
	if err := p.tx.send(jobMessage(job)); err != nil {
		panic(wperrors.NewOperationError("threadpool", "Submit", err))
	}
}

// Shutdown sends one Terminate per worker and then waits for each worker, in
// order, to drain every job queued before it and exit. Later calls return
// immediately.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(p.shutdown)
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	tx := p.tx
	p.tx = nil
	p.mu.Unlock()

	p.logger.Info("sending terminate message to all workers")
	for range p.workers {
		if err := tx.send(terminateMessage()); err != nil {
			panic(wperrors.NewOperationError("threadpool", "Shutdown", err))
		}
	}

	p.logger.Info("shutting down all workers")
	for _, w := range p.workers {
		p.logger.Debug("shutting down worker", "worker", w.id)
		if h := w.take(); h != nil {
			h.join()
		}
	}

	tx.close()
	p.rx.rx.close()
	p.logger.Info("thread pool shut down", "completed", p.completed.Load())
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return p.config.WorkerCount
}

// Name returns the pool's name.
func (p *Pool) Name() string {
	return p.config.Name
}

// LiveWorkers returns the number of worker goroutines still in their loop.
func (p *Pool) LiveWorkers() int {
	return int(p.live.Load())
}

// ActiveWorkers returns the number of workers currently executing a job.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// Pending returns the number of messages waiting in the control channel.
func (p *Pool) Pending() int {
	return p.rx.pending()
}

// TotalSubmitted returns the total number of jobs submitted to the pool.
func (p *Pool) TotalSubmitted() int64 {
	return p.submitted.Load()
}

// TotalCompleted returns the total number of jobs that have finished, panicked
// jobs included.
func (p *Pool) TotalCompleted() int64 {
	return p.completed.Load()
}

// TotalPanicked returns the number of jobs that panicked.
func (p *Pool) TotalPanicked() int64 {
	return p.panicked.Load()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Size:      p.Size(),
		Live:      p.LiveWorkers(),
		Active:    p.ActiveWorkers(),
		Pending:   p.Pending(),
		Submitted: p.TotalSubmitted(),
		Completed: p.TotalCompleted(),
		Panicked:  p.TotalPanicked(),
	}
}
