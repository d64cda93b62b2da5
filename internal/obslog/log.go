// Package obslog provides the structured logging used across every
// coordination component. Grounded on
// adred-codev-ws_poc/src/logger.go's NewLogger/LogError/LogErrorWithStack
// shape, adapted from a websocket server's per-connection logging to a
// per-node, per-service logging vocabulary.
package obslog

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the logger's output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// Config configures a Logger.
type Config struct {
	Level   zerolog.Level
	Format  Format
	Service string
}

// New creates a logger tagged with a stable "service" field, timestamp,
// and caller info, mirroring NewLogger in adred-codev-ws_poc's logger.go.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout
	if cfg.Format == FormatPretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	zerolog.SetGlobalLevel(cfg.Level)

	service := cfg.Service
	if service == "" {
		service = "iceoryx2"
	}
	return zerolog.New(output).With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// LogError logs err with contextual fields, mirroring LogError in
// adred-codev-ws_poc's logger.go.
func LogError(logger zerolog.Logger, err error, msg string, fields map[string]any) {
	event := logger.Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// LogErrorWithStack logs err along with the current goroutine's stack
// trace, for unexpected failures — corrupted storage, contract
// violations — where the caller needs the full call path, not just the
// error string.
func LogErrorWithStack(logger zerolog.Logger, err error, msg string, fields map[string]any) {
	event := logger.Error().Err(err).Str("stack_trace", string(debug.Stack()))
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
