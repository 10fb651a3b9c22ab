package threadpool

import (
	"fmt"
	"runtime/debug"
	"time"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
)

// joinHandle is the waitable side of a running worker goroutine.
type joinHandle struct {
	done chan struct{}
}

func (h *joinHandle) join() {
	<-h.done
}

// worker owns one goroutine. Its handle lives in thread until Shutdown
// takes it; after that the slot is nil.
type worker struct {
	id     int
	pool   *Pool
	thread *joinHandle
}

func newWorker(id int, pool *Pool, rx *sharedReceiver, ready func()) *worker {
	w := &worker{
		id:     id,
		pool:   pool,
		thread: &joinHandle{done: make(chan struct{})},
	}
	go w.run(rx, w.thread.done, ready)
	return w
}

// take moves the join handle out of the worker. It returns nil on every
// call after the first.
func (w *worker) take() *joinHandle {
	h := w.thread
	w.thread = nil
	return h
}

// run is the main loop for a worker.
func (w *worker) run(rx *sharedReceiver, done chan struct{}, ready func()) {
	p := w.pool
	defer close(done)

	p.live.Add(1)
	p.metrics.workerStarted()
	defer func() {
		p.live.Add(-1)
		p.metrics.workerStopped()
		if p.config.OnWorkerStop != nil {
			p.config.OnWorkerStop(w.id)
		}
	}()

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	ready()

	for {
		msg, err := rx.receive()
		if err != nil {
			// The pool outlives its workers, so this is a broken invariant.
			panic(wperrors.NewOperationError("threadpool", "receive", err).
				WithContext(fmt.Sprintf("worker %d", w.id)))
		}

		switch msg.kind {
		case newJob:
			p.logger.Debug("worker got a job; executing", "worker", w.id)
			w.execute(msg)
		case terminate:
			p.logger.Debug("worker was told to terminate", "worker", w.id)
			return
		}
	}
}

// execute runs one job to completion. A panicking job is recovered so the
// worker survives it.
func (w *worker) execute(msg message) {
	p := w.pool
	start := time.Now()
	panicked := false

	p.active.Add(1)
	p.metrics.jobReceived(msg)

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			p.panicked.Add(1)
			p.logger.Error("job panicked",
				"worker", w.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(w.id, r)
			}
		}

		p.active.Add(-1)
		p.completed.Add(1)
		p.metrics.jobFinished(time.Since(start), panicked)
	}()

	msg.job()
}
