// Package logging configures the global zerolog logger used by every
// component of the GBIF client.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs page fetches, cache decisions and polls.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs submissions, finished downloads and server lifecycle.
	LevelInfo LogLevel = "info"

	// LevelWarn logs retries, cool-downs and discarded aggregations.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed requests only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// ParseLevel validates a level name. "warning" is accepted for warn and the
// empty string selects info.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return "", errors.Errorf("unknown log level %q (want debug, info, warn or error)", s)
}

// Setup configures the global zerolog logger and returns it. Unknown levels
// fall back to info.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func zerologLevel(level LogLevel) zerolog.Level {
	parsed, err := ParseLevel(string(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch parsed {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Components log under these names: gbif-client, ratelimit, pagination,
// download, gbif and server.
//
// Context fields:
//   - endpoint: service path relative to the base URL
//   - status_code: HTTP status code
//   - error_class: client, server, rate_limit or network
//   - request_id: X-Request-ID sent with the request
//   - offset, limit, page: pagination position
//   - download_key, status: download job and its observed status
//   - retry_after, remaining: cool-down window
