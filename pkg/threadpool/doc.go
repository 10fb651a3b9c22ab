/*
Package threadpool provides a fixed-size pool of worker goroutines that run
submitted jobs and shut down only after every queued job has finished.

Submission is push-style, consumption is pull-style: Submit appends a job to
an unbounded control channel, and whichever worker is idle receives it next.
Exactly one worker at a time may be waiting on the channel; the guard is
released before the job runs, so other workers keep receiving while one is
busy.

Basic usage:

	pool := threadpool.New(4)
	defer pool.Shutdown()

	for _, conn := range conns {
		conn := conn
		pool.Submit(func() {
			handle(conn)
		})
	}

Shutdown Protocol:

Shutdown appends one Terminate message per worker after every job already
submitted, then waits for the workers one by one in creation order. Because
the channel is FIFO, every job queued before Shutdown is received, and run,
before any worker sees Terminate. A worker busy with a long job finishes it
first; nothing is interrupted.

Go has no destructors, so the owner must call Shutdown. A pool that is never
shut down leaks its goroutines. Calling Shutdown more than once is a no-op.

Error Handling:

The pool has no recoverable errors. Creating a pool with fewer than one
worker, submitting a nil job, or submitting after Shutdown panics. A job that
panics is recovered, logged, counted in TotalPanicked and passed to
Config.PanicHandler; the worker that ran it carries on with the next job.

Non-goals:

There is no priority, no queue bound or backpressure, no resizing and no
per-job cancellation. Jobs that need a deadline must carry their own context.

Observability:

Config.Logger receives debug lines for every job receipt and termination and
info lines for shutdown. Config.Metrics publishes size, live and active
workers, pending jobs and job counters to a Prometheus registry.
*/
package threadpool
