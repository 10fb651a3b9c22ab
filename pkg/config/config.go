// Package config loads webpool settings from defaults, a YAML or JSON file
// and WEBPOOL_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/common/validation"
	"github.com/vnykmshr/webpool/pkg/logging"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Report  ReportConfig  `yaml:"report" json:"report"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// ServerConfig configures the TCP listener and static responder.
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`

	// ReadBufferSize bounds how much of each request is read.
	ReadBufferSize int `yaml:"read_buffer" json:"read_buffer"`

	// MaxConnections stops accepting after this many connections. 0 means no limit.
	MaxConnections int `yaml:"max_connections" json:"max_connections"`

	// ShutdownTimeout bounds how long the process waits for queued requests
	// to drain. 0 waits indefinitely.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// AcceptRate caps accepted connections per second. 0 means unlimited.
	AcceptRate  float64 `yaml:"accept_rate" json:"accept_rate"`
	AcceptBurst int     `yaml:"accept_burst" json:"accept_burst"`
}

// PoolConfig configures the thread pool.
type PoolConfig struct {
	Workers int    `yaml:"workers" json:"workers"`
	Name    string `yaml:"name" json:"name"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// RedisConfig configures the optional hit counter. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `yaml:"addr" json:"addr"`
	Password  string        `yaml:"password" json:"password"`
	DB        int           `yaml:"db" json:"db"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ReportConfig configures periodic pool stats logging. An empty Schedule disables it.
type ReportConfig struct {
	Schedule string `yaml:"schedule" json:"schedule"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:7878",
			StaticDir:       "static",
			ReadBufferSize:  1024,
			ShutdownTimeout: 30 * time.Second,
			AcceptBurst:     10,
		},
		Pool: PoolConfig{
			Workers: 5,
			Name:    "http",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
			Path:    "/metrics",
		},
		Redis: RedisConfig{
			KeyPrefix: "webpool",
			Timeout:   time.Second,
		},
		Report: ReportConfig{
			Schedule: "@every 30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path over c. JSON durations are integer nanoseconds;
// YAML durations may be written as strings such as "30s".
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvAddr           = "WEBPOOL_ADDR"
	EnvWorkers        = "WEBPOOL_WORKERS"
	EnvStaticDir      = "WEBPOOL_STATIC_DIR"
	EnvMaxConnections = "WEBPOOL_MAX_CONNECTIONS"
	EnvMetricsAddr    = "WEBPOOL_METRICS_ADDR"
	EnvRedisAddr      = "WEBPOOL_REDIS_ADDR"
	EnvLogLevel       = "WEBPOOL_LOG_LEVEL"
	EnvLogFormat      = "WEBPOOL_LOG_FORMAT"
)

// ApplyEnv overrides fields from environment variables found by lookup.
// Setting WEBPOOL_METRICS_ADDR also enables metrics.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvStaticDir); ok {
		c.Server.StaticDir = v
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Pool.Workers = n
	}
	if v, ok := lookup(EnvMaxConnections); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxConnections, err)
		}
		c.Server.MaxConnections = n
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
		c.Metrics.Enabled = v != ""
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate reports every invalid field, joined into one error.
func (c *Config) Validate() error {
	errs := []error{
		validation.ValidateNotEmpty("config", "server.addr", c.Server.Addr),
		validation.ValidateNotEmpty("config", "server.static_dir", c.Server.StaticDir),
		validation.ValidatePositive("config", "server.read_buffer", c.Server.ReadBufferSize),
		validation.ValidateNonNegative("config", "server.max_connections", c.Server.MaxConnections),
		validation.ValidateNonNegativeDuration("config", "server.shutdown_timeout", c.Server.ShutdownTimeout),
		validation.ValidatePositive("config", "pool.workers", c.Pool.Workers),
		validation.ValidateOneOf("config", "log.format", strings.ToLower(c.Log.Format), "text", "json"),
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Server.AcceptRate < 0 {
		errs = append(errs, wperrors.NewValidationError("config", "server.accept_rate", c.Server.AcceptRate, "must be non-negative"))
	}
	if c.Server.AcceptRate > 0 {
		errs = append(errs, validation.ValidatePositive("config", "server.accept_burst", c.Server.AcceptBurst))
	}
	if c.Metrics.Enabled {
		errs = append(errs,
			validation.ValidateNotEmpty("config", "metrics.addr", c.Metrics.Addr),
			validation.ValidateNotEmpty("config", "metrics.path", c.Metrics.Path),
		)
	}
	if c.Redis.Addr != "" {
		errs = append(errs, validation.ValidateNonNegativeDuration("config", "redis.timeout", c.Redis.Timeout))
	}
	return errors.Join(errs...)
}
