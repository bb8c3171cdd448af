// Package observability provides structured logging for wallthemes.
package observability

import (
	"crypto/rand"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/masq"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/wallthemes/internal/config"
)

// LevelTrace is more verbose than debug; used for per-frame image details.
const LevelTrace = slog.Level(-8)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

var sensitiveFields = []string{
	"password", "secret", "token", "apikey", "api_key", "credential", "authorization",
}

// sensitiveQueryParam matches sensitive query parameters embedded in URLs.
var sensitiveQueryParam = regexp.MustCompile(`(?i)([?&](?:password|secret|token|apikey|api_key|credential|sig|signature)=)[^&#\s"]*`)

// urlUserInfo matches credentials embedded in URLs.
var urlUserInfo = regexp.MustCompile(`(://)[^/@\s"]+@`)

// NewLogger creates a logger that writes to stderr, leaving stdout for
// CI annotations.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stderr)
}

// NewLoggerWithWriter creates a new slog.Logger that writes to the provided writer.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	redact := masq.New(redactOptions()...)

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch a.Key {
				case slog.LevelKey:
					if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
						return slog.String(slog.LevelKey, "TRACE")
					}
					return a
				case slog.TimeKey:
					if t, ok := a.Value.Any().(time.Time); ok && cfg.TimeFormat != "" {
						return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
					}
					return a
				case slog.MessageKey, slog.SourceKey:
					return a
				}
			}
			if a.Value.Kind() == slog.KindString {
				a.Value = slog.StringValue(RedactURL(a.Value.String()))
			}
			return redact(groups, a)
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func redactOptions() []masq.Option {
	opts := []masq.Option{masq.WithRedactMessage(RedactedValue)}
	for _, name := range sensitiveFields {
		opts = append(opts,
			masq.WithFieldName(name),
			masq.WithFieldName(capitalize(name)),
			masq.WithFieldName(strings.ToUpper(name)),
		)
	}
	// ApiKey style
	opts = append(opts, masq.WithFieldName("ApiKey"))
	return opts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RedactURL masks URL credentials and sensitive query parameter values in s.
func RedactURL(s string) string {
	if !strings.Contains(s, "://") && !strings.Contains(s, "?") {
		return s
	}
	s = urlUserInfo.ReplaceAllString(s, "${1}"+RedactedValue+"@")
	return sensitiveQueryParam.ReplaceAllString(s, "${1}"+RedactedValue)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs logger as the process-wide default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

// NewRunID returns a new lexically sortable run identifier.
func NewRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// WithCorrelationID adds a correlation ID to the logger.
func WithCorrelationID(logger *slog.Logger, correlationID string) *slog.Logger {
	return logger.With(slog.String("correlation_id", correlationID))
}

// WithComponent adds a component name to the logger for identifying the source.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithTheme scopes the logger to a single theme package.
func WithTheme(logger *slog.Logger, themeID string) *slog.Logger {
	return logger.With(slog.String("theme_id", themeID))
}

// WithError adds an error to the logger attributes.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}

// TimedOperation logs the start of an operation and returns a function that
// logs its completion, or its failure when *errPtr is non-nil at that point.
func TimedOperation(logger *slog.Logger, operation string, errPtr *error) func() {
	start := time.Now()
	logger.Debug("operation started", slog.String("operation", operation))

	return func() {
		duration := time.Since(start)
		if errPtr != nil && *errPtr != nil {
			logger.Error("operation failed",
				slog.String("operation", operation),
				slog.Duration("duration", duration),
				slog.String("error", (*errPtr).Error()),
			)
			return
		}
		logger.Info("operation completed",
			slog.String("operation", operation),
			slog.Duration("duration", duration),
		)
	}
}
