package threadpool

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/vnykmshr/webpool/internal/testutil"
)

// BenchmarkSubmit measures the overhead of job submission and execution
func BenchmarkSubmit(b *testing.B) {
	pool := NewWithConfig(Config{WorkerCount: 4, Logger: testutil.DiscardLogger()})
	defer pool.Shutdown()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() {})
		}
	})
}

// BenchmarkSubmitWithWork measures throughput with a small CPU-bound job
func BenchmarkSubmitWithWork(b *testing.B) {
	pool := NewWithConfig(Config{WorkerCount: 4, Logger: testutil.DiscardLogger()})
	defer pool.Shutdown()

	var sink atomic.Int64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {
			sum := 0
			for j := 0; j < 1000; j++ {
				sum += j
			}
			sink.Add(int64(sum))
		})
	}
}

// BenchmarkWorkerCounts compares drain time across pool sizes
func BenchmarkWorkerCounts(b *testing.B) {
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				pool := NewWithConfig(Config{WorkerCount: workers, Logger: testutil.DiscardLogger()})
				for j := 0; j < 1000; j++ {
					pool.Submit(func() {})
				}
				pool.Shutdown()
			}
		})
	}
}

// BenchmarkChannel measures raw send/receive cost on the control channel
func BenchmarkChannel(b *testing.B) {
	tx, rx := newChannel()
	msg := jobMessage(func() {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tx.send(msg)
		_, _ = rx.receive()
	}
}
