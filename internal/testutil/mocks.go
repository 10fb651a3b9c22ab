package testutil

import (
	"bytes"
	"context"
	"errors"
	"sync"
)

// MockWriter is a goroutine-safe writer for capturing log output. It can be
// told to fail every write.
type MockWriter struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	writeCount  int
	shouldError bool
	err         error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements io.Writer.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++
	if mw.shouldError {
		return 0, mw.err
	}
	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// ErrMockFailure is returned by mocks configured to fail.
var ErrMockFailure = errors.New("simulated failure")

// MockHitCounter counts Incr calls per key in memory.
type MockHitCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	fail bool
}

// NewMockHitCounter creates an empty MockHitCounter.
func NewMockHitCounter() *MockHitCounter {
	return &MockHitCounter{hits: make(map[string]int64)}
}

// Incr records one hit for key, or returns ErrMockFailure when failing.
func (m *MockHitCounter) Incr(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrMockFailure
	}
	m.hits[key]++
	return nil
}

// Hits returns the number of hits recorded for key.
func (m *MockHitCounter) Hits(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[key]
}

// SetFailing makes every later Incr fail.
func (m *MockHitCounter) SetFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}
