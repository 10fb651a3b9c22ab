package threadpool

import (
	"time"

	"github.com/vnykmshr/webpool/pkg/metrics"
)

// instrumentation publishes pool activity to a metrics registry. A nil
// *instrumentation records nothing.
type instrumentation struct {
	name     string
	registry *metrics.Registry
}

func newInstrumentation(name string, registry *metrics.Registry) *instrumentation {
	if registry == nil {
		return nil
	}
	return &instrumentation{name: name, registry: registry}
}

func (in *instrumentation) poolStarted(size int) {
	if in == nil {
		return
	}
	in.registry.PoolSize.WithLabelValues(in.name).Set(float64(size))
}

func (in *instrumentation) workerStarted() {
	if in == nil {
		return
	}
	in.registry.PoolLiveWorkers.WithLabelValues(in.name).Inc()
}

func (in *instrumentation) workerStopped() {
	if in == nil {
		return
	}
	in.registry.PoolLiveWorkers.WithLabelValues(in.name).Dec()
}

func (in *instrumentation) jobSubmitted() {
	if in == nil {
		return
	}
	in.registry.JobsSubmitted.WithLabelValues(in.name).Inc()
	in.registry.PoolPending.WithLabelValues(in.name).Inc()
}

// jobReceived records the time msg spent queued and marks a worker busy.
func (in *instrumentation) jobReceived(msg message) {
	if in == nil {
		return
	}
	in.registry.PoolPending.WithLabelValues(in.name).Dec()
	in.registry.PoolActive.WithLabelValues(in.name).Inc()
	if !msg.enqueued.IsZero() {
		in.registry.JobQueueDuration.WithLabelValues(in.name).Observe(time.Since(msg.enqueued).Seconds())
	}
}

func (in *instrumentation) jobFinished(duration time.Duration, panicked bool) {
	if in == nil {
		return
	}
	in.registry.PoolActive.WithLabelValues(in.name).Dec()
	in.registry.JobDuration.WithLabelValues(in.name).Observe(duration.Seconds())
	in.registry.JobsCompleted.WithLabelValues(in.name).Inc()
	if panicked {
		in.registry.JobsPanicked.WithLabelValues(in.name).Inc()
	}
}
