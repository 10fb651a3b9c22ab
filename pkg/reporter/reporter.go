// Package reporter periodically logs pool statistics on a cron schedule.
package reporter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/threadpool"
)

// DefaultSchedule reports every thirty seconds.
const DefaultSchedule = "@every 30s"

// StatsSource is anything that can produce pool statistics. *threadpool.Pool
// satisfies it.
type StatsSource interface {
	Name() string
	Stats() threadpool.Stats
}

// Config configures a Reporter.
type Config struct {
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@every 10s" or "@hourly". Defaults to DefaultSchedule.
	Schedule string

	Logger *slog.Logger
}

// Reporter logs the stats of one or more pools on a schedule.
type Reporter struct {
	cron    *cron.Cron
	sources []StatsSource
	logger  *slog.Logger

	mu      sync.Mutex
	reports int
	running bool
}

// New creates a reporter for sources. It returns a validation error when
// the schedule cannot be parsed.
func New(config Config, sources ...StatsSource) (*Reporter, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(config.Schedule)
	if err != nil {
		return nil, wperrors.NewValidationError("reporter", "schedule", config.Schedule, err.Error()).
			WithHint(`use a cron expression or a descriptor such as "@every 30s"`)
	}

	r := &Reporter{
		cron:    cron.New(cron.WithParser(parser)),
		sources: sources,
		logger:  logger,
	}
	r.cron.Schedule(schedule, cron.FuncJob(r.Report))
	return r, nil
}

// Report logs one line per source immediately.
func (r *Reporter) Report() {
	r.mu.Lock()
	r.reports++
	r.mu.Unlock()

	for _, src := range r.sources {
		s := src.Stats()
		r.logger.Info("pool stats",
			"pool", src.Name(),
			"size", s.Size,
			"live", s.Live,
			"active", s.Active,
			"pending", s.Pending,
			"submitted", s.Submitted,
			"completed", s.Completed,
			"panicked", s.Panicked,
		)
	}
}

// Reports returns how many times Report has run.
func (r *Reporter) Reports() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports
}

// Start begins reporting in the background. Calling Start twice is a no-op.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.cron.Start()
}

// Stop halts the schedule. The returned context is done once a report
// that is already running has finished.
func (r *Reporter) Stop() context.Context {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return r.cron.Stop()
}
