// Package logging builds the structured loggers used by webpool components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
	"github.com/vnykmshr/webpool/pkg/common/validation"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures a logger.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// Format is FormatText or FormatJSON. Empty means text.
	Format string

	// Output receives log lines. Nil means os.Stderr.
	Output io.Writer

	// AddSource includes the calling file and line in every record.
	AddSource bool
}

// New builds a logger from opts. It returns a *errors.ValidationError for an
// unknown level or format.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatText
	}
	if err := validation.ValidateOneOf("logging", "format", format, FormatText, FormatJSON); err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, wperrors.NewValidationError("logging", "level", s, "unknown level").
			WithHint("use debug, info, warn or error")
	}
}
