package httpd

import (
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vnykmshr/webpool/pkg/metrics"
)

// DefaultBufferSize is how many bytes of a request are read.
const DefaultBufferSize = 1024

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// StaticDir holds the files named by routes.
	StaticDir string

	// BufferSize bounds the single read of each request. 0 means DefaultBufferSize.
	BufferSize int

	// Router picks the route for each request. Nil means DefaultRouter().
	Router *Router

	// Hits, if set, is told about every answered route.
	Hits HitCounter

	// HitTimeout bounds each HitCounter call. 0 means one second.
	HitTimeout time.Duration

	// Name labels metrics.
	Name string

	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Handler answers one connection: it reads the request once, matches the
// request line and writes back a static file.
type Handler struct {
	config HandlerConfig
	router *Router
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(config HandlerConfig) *Handler {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.HitTimeout <= 0 {
		config.HitTimeout = time.Second
	}
	if config.Name == "" {
		config.Name = "http"
	}

	router := config.Router
	if router == nil {
		router = DefaultRouter()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config: config,
		router: router,
		logger: logger,
	}
}

// ServeConn handles conn and closes it. Failures are logged; nothing is
// returned because the caller is a pool worker with nobody to report to.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	log := h.logger.With("conn_id", uuid.NewString(), "remote", remoteAddr(conn))

	buf := make([]byte, h.config.BufferSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		log.Warn("failed to read request", "error", err)
		return
	}

	route := h.router.Match(buf[:n])
	status := route.StatusLine
	body, err := os.ReadFile(filepath.Join(h.config.StaticDir, route.File))
	if err != nil {
		log.Error("failed to read static file", "route", route.Name, "file", route.File, "error", err)
		status = StatusServerError
		body = nil
	}

	written, err := conn.Write(FormatResponse(status, body))
	if err != nil {
		log.Warn("failed to write response", "route", route.Name, "error", err)
	}

	code := statusCode(status)
	log.Debug("request served", "route", route.Name, "code", code, "bytes", written, "duration", time.Since(start))

	h.countHit(log, route)
	h.observe(code, written, time.Since(start))
}

func (h *Handler) countHit(log *slog.Logger, route Route) {
	if h.config.Hits == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.config.HitTimeout)
	defer cancel()

	if err := h.config.Hits.Incr(ctx, route.Name); err != nil {
		log.Warn("failed to record hit", "route", route.Name, "error", err)
	}
}

func (h *Handler) observe(code, written int, duration time.Duration) {
	m := h.config.Metrics
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(h.config.Name, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(h.config.Name).Observe(duration.Seconds())
	m.BytesWritten.WithLabelValues(h.config.Name).Add(float64(written))
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
