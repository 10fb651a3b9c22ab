/*
Package webpool serves static pages over raw TCP using a fixed-size thread
pool.

Thread pool (pkg/threadpool):
  - New/NewWithConfig: start N workers sharing one control channel
  - Submit: queue a job for the next idle worker
  - Shutdown: tell every worker to terminate and wait for each in turn

Server (pkg/httpd):
  - Router: match request lines against known paths
  - Handler: read one request, answer with a static file
  - Server: accept connections and submit each one as a job

Supporting packages:
  - config: YAML/JSON file and WEBPOOL_* environment settings
  - logging: slog logger construction
  - metrics: Prometheus collectors for the pool and server
  - reporter: cron-scheduled pool stats logging
  - ratelimit/bucket: optional accept pacing

Example usage:

	import (
		"github.com/vnykmshr/webpool/pkg/httpd"
		"github.com/vnykmshr/webpool/pkg/threadpool"
	)

	pool := threadpool.New(4)
	defer pool.Shutdown()

	handler := httpd.NewHandler(httpd.HandlerConfig{StaticDir: "static"})
	server := httpd.NewServer(httpd.ServerConfig{Addr: "127.0.0.1:7878"}, pool, handler)
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}
*/
package webpool
