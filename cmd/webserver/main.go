// Command webserver serves a handful of static pages over raw TCP, handing
// every accepted connection to a fixed-size thread pool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	wpcontext "github.com/vnykmshr/webpool/pkg/common/context"
	"github.com/vnykmshr/webpool/pkg/config"
	"github.com/vnykmshr/webpool/pkg/httpd"
	"github.com/vnykmshr/webpool/pkg/logging"
	"github.com/vnykmshr/webpool/pkg/metrics"
	"github.com/vnykmshr/webpool/pkg/ratelimit/bucket"
	"github.com/vnykmshr/webpool/pkg/reporter"
	"github.com/vnykmshr/webpool/pkg/threadpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "webserver:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a YAML or JSON config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		workers    = flag.Int("workers", 0, "number of pool workers (overrides config)")
		maxConns   = flag.Int("max-conns", -1, "stop after this many connections, 0 for no limit (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *workers > 0 {
		cfg.Pool.Workers = *workers
	}
	if *maxConns >= 0 {
		cfg.Server.MaxConnections = *maxConns
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		reg = metrics.NewRegistryWithConfig(metrics.Config{
			Enabled:   true,
			Registry:  promRegistry,
			Namespace: metrics.DefaultNamespace,
		})
		metricsServer := serveMetrics(cfg.Metrics, promRegistry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	var hits httpd.HitCounter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		counter := httpd.NewRedisHitCounter(client, cfg.Redis.KeyPrefix)
		pingCtx, cancel := wpcontext.WithTimeoutOrCancel(ctx, cfg.Redis.Timeout)
		if err := counter.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable; hits will not be recorded until it is", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		hits = counter
	}

	pool := threadpool.NewWithConfig(threadpool.Config{
		WorkerCount: cfg.Pool.Workers,
		Name:        cfg.Pool.Name,
		Logger:      logger,
		Metrics:     reg,
	})

	if cfg.Report.Schedule != "" {
		rep, err := reporter.New(reporter.Config{Schedule: cfg.Report.Schedule, Logger: logger}, pool)
		if err != nil {
			pool.Shutdown()
			return err
		}
		rep.Start()
		defer func() { <-rep.Stop().Done() }()
	}

	handler := httpd.NewHandler(httpd.HandlerConfig{
		StaticDir:  cfg.Server.StaticDir,
		BufferSize: cfg.Server.ReadBufferSize,
		Hits:       hits,
		HitTimeout: cfg.Redis.Timeout,
		Name:       cfg.Pool.Name,
		Logger:     logger,
		Metrics:    reg,
	})
	serverConfig := httpd.ServerConfig{
		Name:           cfg.Pool.Name,
		Addr:           cfg.Server.Addr,
		MaxConnections: cfg.Server.MaxConnections,
		Logger:         logger,
		Metrics:        reg,
	}
	if cfg.Server.AcceptRate > 0 {
		limiter, err := bucket.New(bucket.Limit(cfg.Server.AcceptRate), cfg.Server.AcceptBurst)
		if err != nil {
			pool.Shutdown()
			return err
		}
		serverConfig.AcceptLimiter = limiter
	}
	server := httpd.NewServer(serverConfig, pool, handler)

	serveErr := server.ListenAndServe(ctx)
	logger.Info("Shutting down.")

	drainCtx, cancel := wpcontext.WithTimeoutOrCancel(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := wpcontext.Wait(drainCtx, pool.Shutdown); err != nil {
		logger.Error("pool did not drain in time", "timeout", cfg.Server.ShutdownTimeout, "stats", pool.Stats())
		return errors.Join(serveErr, err)
	}
	return serveErr
}

func serveMetrics(cfg config.MetricsConfig, g prometheus.Gatherer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(g))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
