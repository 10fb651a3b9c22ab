package httpd

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/webpool/internal/testutil"
	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/ratelimit/bucket"
	"github.com/vnykmshr/webpool/pkg/threadpool"
)

func get(t *testing.T, addr, path string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	testutil.AssertNoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET " + path + " HTTP/1.1\r\nHost: test\r\n\r\n"))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := io.ReadAll(conn)
	testutil.AssertNoError(t, err)
	return string(resp)
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err)
	return ln
}

func TestServerStopsAfterMaxConnections(t *testing.T) {
	pool := threadpool.NewWithConfig(threadpool.Config{WorkerCount: 2, Logger: testutil.DiscardLogger()})
	handler := NewHandler(HandlerConfig{StaticDir: staticDir(t), Logger: testutil.DiscardLogger()})
	srv := NewServer(ServerConfig{MaxConnections: 2, Logger: testutil.DiscardLogger()}, pool, handler)

	ln := listen(t)
	addr := ln.Addr().String()

	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	testutil.AssertEqual(t, strings.HasSuffix(get(t, addr, "/hello"), "<h1>Hi there</h1>"), true)
	testutil.AssertEqual(t, strings.HasPrefix(get(t, addr, "/missing"), StatusNotFound), true)

	select {
	case err := <-served:
		testutil.AssertNoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after reaching the connection limit")
	}
	pool.Shutdown()

	testutil.AssertEqual(t, srv.Accepted(), int64(2))
	testutil.AssertEqual(t, pool.TotalCompleted(), int64(2))

	// The listener is closed once Serve returns.
	_, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
	testutil.AssertError(t, err)
}

func TestServerStopsOnCancel(t *testing.T) {
	pool := threadpool.NewWithConfig(threadpool.Config{WorkerCount: 1, Logger: testutil.DiscardLogger()})
	defer pool.Shutdown()
	handler := NewHandler(HandlerConfig{StaticDir: staticDir(t), Logger: testutil.DiscardLogger()})
	srv := NewServer(ServerConfig{Logger: testutil.DiscardLogger()}, pool, handler)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	ln := listen(t)
	go func() { served <- srv.Serve(ctx, ln) }()

	testutil.AssertEqual(t, strings.HasPrefix(get(t, ln.Addr().String(), "/"), StatusOK), true)
	cancel()

	select {
	case err := <-served:
		testutil.AssertNoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServerShutdownDrainsInFlight(t *testing.T) {
	pool := threadpool.NewWithConfig(threadpool.Config{WorkerCount: 1, Logger: testutil.DiscardLogger()})

	release := make(chan struct{})
	handler := &blockingHandler{release: release}
	srv := NewServer(ServerConfig{MaxConnections: 3, Logger: testutil.DiscardLogger()}, pool, handler)

	ln := listen(t)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	var conns []net.Conn
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", ln.Addr().String())
		testutil.AssertNoError(t, err)
		conns = append(conns, conn)
	}
	testutil.AssertNoError(t, <-served)

	shutdown := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdown)
	}()

	select {
	case <-shutdown:
		t.Fatal("Shutdown returned while connections were still being served")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-shutdown
	testutil.AssertEqual(t, handler.count(), 3)

	for _, c := range conns {
		c.Close()
	}
}

func TestServerReturnsAcceptError(t *testing.T) {
	pool := &recordingSubmitter{}
	srv := NewServer(ServerConfig{Logger: testutil.DiscardLogger()}, pool, &blockingHandler{})

	boom := errors.New("listener exploded")
	err := srv.Serve(context.Background(), &failingListener{err: boom})

	testutil.AssertEqual(t, errors.Is(err, boom), true)
	var opErr *wperrors.OperationError
	testutil.AssertEqual(t, errors.As(err, &opErr), true)
	testutil.AssertEqual(t, opErr.Operation, "Accept")
	testutil.AssertEqual(t, pool.count(), 0)
}

func TestServerRetriesTemporaryAcceptError(t *testing.T) {
	pool := &recordingSubmitter{}
	handler := &blockingHandler{}
	srv := NewServer(ServerConfig{MaxConnections: 1, Logger: testutil.DiscardLogger()}, pool, handler)

	client, server := net.Pipe()
	defer client.Close()
	ln := &failingListener{
		err:       timeoutError{},
		failTimes: 2,
		conn:      server,
	}

	testutil.AssertNoError(t, srv.Serve(context.Background(), ln))
	testutil.AssertEqual(t, pool.count(), 1)
	testutil.AssertEqual(t, srv.Accepted(), int64(1))
}

func TestListenAndServeBadAddress(t *testing.T) {
	srv := NewServer(ServerConfig{Addr: "256.0.0.1:http-nope", Logger: testutil.DiscardLogger()}, &recordingSubmitter{}, &blockingHandler{})
	err := srv.ListenAndServe(context.Background())
	testutil.AssertError(t, err)
}

func TestNextBackoff(t *testing.T) {
	testutil.AssertEqual(t, nextBackoff(0), 5*time.Millisecond)
	testutil.AssertEqual(t, nextBackoff(5*time.Millisecond), 10*time.Millisecond)
	testutil.AssertEqual(t, nextBackoff(800*time.Millisecond), time.Second)
}

// blockingHandler waits on release (if set) and closes the connection.
type blockingHandler struct {
	release chan struct{}
	mu      sync.Mutex
	served  int
}

func (h *blockingHandler) ServeConn(conn net.Conn) {
	defer conn.Close()
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	h.served++
	h.mu.Unlock()
}

func (h *blockingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.served
}

// recordingSubmitter runs jobs inline and counts them.
type recordingSubmitter struct {
	mu   sync.Mutex
	jobs int
}

func (r *recordingSubmitter) Submit(job threadpool.Job) {
	r.mu.Lock()
	r.jobs++
	r.mu.Unlock()
	job()
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "accept timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// failingListener fails Accept failTimes times with err and then hands out
// conn once; with failTimes 0 it always fails.
type failingListener struct {
	mu        sync.Mutex
	err       error
	failTimes int
	calls     int
	conn      net.Conn
}

func (l *failingListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failTimes == 0 || l.calls <= l.failTimes {
		return nil, l.err
	}
	return l.conn, nil
}

func (l *failingListener) Close() error { return nil }

func (l *failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestServerPacesAccepts(t *testing.T) {
	pool := &recordingSubmitter{}
	limiter, err := bucket.New(bucket.Every(25*time.Millisecond), 1)
	testutil.AssertNoError(t, err)

	var conns []net.Conn
	ln := &sequenceListener{}
	for i := 0; i < 3; i++ {
		client, server := net.Pipe()
		conns = append(conns, client)
		ln.conns = append(ln.conns, server)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	srv := NewServer(ServerConfig{MaxConnections: 3, AcceptLimiter: limiter, Logger: testutil.DiscardLogger()}, pool, &blockingHandler{})

	start := time.Now()
	testutil.AssertNoError(t, srv.Serve(context.Background(), ln))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three accepts took %v; expected the limiter to pace them", elapsed)
	}
	testutil.AssertEqual(t, pool.count(), 3)
}

func TestServerLimiterStopsOnCancel(t *testing.T) {
	limiter, err := bucket.New(0, 1)
	testutil.AssertNoError(t, err)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	srv := NewServer(ServerConfig{AcceptLimiter: limiter, Logger: testutil.DiscardLogger()}, &recordingSubmitter{}, &blockingHandler{})
	testutil.AssertNoError(t, srv.Serve(ctx, &sequenceListener{}))
	testutil.AssertEqual(t, srv.Accepted(), int64(0))
}

// sequenceListener hands out conns in order and then fails.
type sequenceListener struct {
	mu    sync.Mutex
	conns []net.Conn
}

func (l *sequenceListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.conns) == 0 {
		return nil, net.ErrClosed
	}
	c := l.conns[0]
	l.conns = l.conns[1:]
	return c, nil
}

func (l *sequenceListener) Close() error { return nil }

func (l *sequenceListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}
