package httpd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	wpcontext "github.com/vnykmshr/webpool/pkg/common/context"
	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/metrics"
	"github.com/vnykmshr/webpool/pkg/threadpool"
)

// Submitter accepts jobs for asynchronous execution. *threadpool.Pool
// satisfies it.
type Submitter interface {
	Submit(job threadpool.Job)
}

// Waiter blocks until the next event is allowed. bucket.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// ConnHandler serves a single accepted connection and closes it.
type ConnHandler interface {
	ServeConn(conn net.Conn)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Name labels logs and metrics.
	Name string

	// Addr is the TCP address ListenAndServe binds.
	Addr string

	// MaxConnections makes Serve return after accepting this many
	// connections. 0 means no limit.
	MaxConnections int

	// AcceptLimiter, if set, paces Accept calls.
	AcceptLimiter Waiter

	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Server accepts connections and submits each one to a pool as one job.
// It does not own the pool: the caller shuts the pool down after Serve
// returns, which waits for every submitted connection to be answered.
type Server struct {
	config   ServerConfig
	pool     Submitter
	handler  ConnHandler
	logger   *slog.Logger
	accepted atomic.Int64
}

// NewServer creates a server that hands connections to handler via pool.
func NewServer(config ServerConfig, pool Submitter, handler ConnHandler) *Server {
	if config.Name == "" {
		config.Name = "http"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  config,
		pool:    pool,
		handler: handler,
		logger:  logger.With("server", config.Name),
	}
}

// ListenAndServe binds config.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return wperrors.NewOperationError("httpd", "Listen", err).WithContext(s.config.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or MaxConnections have
// been accepted, then closes ln and returns nil. Any other accept failure is
// returned. Serve does not wait for submitted connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("listening", "addr", ln.Addr().String(), "max_connections", s.config.MaxConnections)

	var backoff time.Duration
	for {
		if s.limitReached() {
			s.logger.Info("connection limit reached", "accepted", s.accepted.Load())
			return nil
		}

		if l := s.config.AcceptLimiter; l != nil {
			if err := l.Wait(ctx); err != nil {
				s.logger.Info("stopped accepting connections", "reason", err)
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if wpcontext.IsCanceled(ctx) {
				s.logger.Info("stopped accepting connections", "reason", ctx.Err())
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed; retrying", "error", err, "delay", backoff)
				time.Sleep(backoff)
				continue
			}
			return wperrors.NewOperationError("httpd", "Accept", err)
		}
		backoff = 0

		s.accepted.Add(1)
		if m := s.config.Metrics; m != nil {
			m.ConnectionsAccepted.WithLabelValues(s.config.Name).Inc()
		}

		s.pool.Submit(func() {
			s.handler.ServeConn(conn)
		})
	}
}

// Accepted returns how many connections Serve has accepted.
func (s *Server) Accepted() int64 {
	return s.accepted.Load()
}

func (s *Server) limitReached() bool {
	return s.config.MaxConnections > 0 && s.accepted.Load() >= int64(s.config.MaxConnections)
}

func nextBackoff(d time.Duration) time.Duration {
	const maxBackoff = time.Second
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
