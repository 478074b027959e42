package logx

import (
	"io"
	"os"

	"github.com/clinic-frontdesk/agent/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	Service     string
	// Output defaults to stderr. The MCP stdio transport owns stdout.
	Output io.Writer
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)
	out := o.Output
	if out == nil {
		out = os.Stderr
	}

	var base zerolog.Logger
	if o.Environment.IsProduction() {
		base = zerolog.New(out).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}
	if o.Service != "" {
		base = base.With().Str("service", o.Service).Logger()
	}
	log.Logger = base
}

// Disable silences all logging; used by tests that assert on output elsewhere.
func Disable() {
	log.Logger = zerolog.Nop()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
