package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"
)

type contextKey string

const loggerContextKey contextKey = "logger"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	// AllFormats lists the accepted --log-format values.
	AllFormats = []string{"text", "logfmt", "json"}
	// AllLevels lists the accepted --log-level values.
	AllLevels = []string{"error", "warn", "info", "debug"}

	formatters = map[string]charmlog.Formatter{
		"text":   charmlog.TextFormatter,
		"logfmt": charmlog.LogfmtFormatter,
		"json":   charmlog.JSONFormatter,
	}
	levels = map[string]slog.Level{
		"error":   slog.LevelError,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
	}
)

// NewHandler returns a charm log [slog.Handler] writing to w, configured from
// the --log-level and --log-format flag values.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := GetLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	formatter, ok := formatters[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrUnknownLogFormat, format)
	}

	debug := lvl <= slog.LevelDebug
	charmLvl := charmlog.Level(int32(lvl)) //nolint:gosec // G115: input from GetLevel.

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmLvl,
		Formatter:       formatter,
		ReportTimestamp: debug,
		ReportCaller:    debug,
		TimeFormat:      time.StampMilli,
	})
	logger.SetColorProfile(termenv.NewOutput(w).ColorProfile())

	return logger, nil
}

// GetLevel parses a level name, case-insensitively.
func GetLevel(level string) (slog.Level, error) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, level)
	}

	return lvl, nil
}

// NewContext returns a copy of ctx carrying logger, which [WithContext]
// prefers over the default logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// WithContext returns the logger stored in ctx, or the default logger
// tagged with the active trace id.
func WithContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		traceID := span.SpanContext().TraceID().String()

		return slog.With(slog.String("trace_id", traceID[:8]))
	}

	return slog.Default()
}
