package observability

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LogOptions configures the process logger
type LogOptions struct {
	Service     string
	Version     string
	Environment string
	Level       string // zerolog level name; empty means info
}

// InitLogger points the global zerolog logger at w. Development gets a
// human readable console; every other environment logs JSON lines.
func InitLogger(w io.Writer, opts LogOptions) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if opts.Environment == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With().Timestamp().Str("service", opts.Service)
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	if opts.Environment != "development" {
		ctx = ctx.Str("env", opts.Environment)
	}
	log.Logger = ctx.Logger()
	return nil
}

// LoggerFromContext returns the global logger, tagged with trace and span ids
// when ctx carries a sampled span
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &log.Logger
	}
	logger := log.Logger.With().
		Stringer("trace_id", sc.TraceID()).
		Stringer("span_id", sc.SpanID()).
		Logger()
	return &logger
}
