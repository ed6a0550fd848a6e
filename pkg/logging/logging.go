// Package logging provides structured logging with trace ID support,
// trimmed from the pack's service-layer logger to the subset the
// monitor actually needs.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys carried on a context.Context.
type ContextKey string

// TraceIDKey is the context key for a probe cycle's trace id.
const TraceIDKey ContextKey = "trace_id"

// Logger wraps logrus.Logger with a fixed service name.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a Logger for service, at the given level ("debug", "info",
// "warn", "error"), using either "json" or text output.
func New(service, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, service: service}
}

// NewFromEnv builds a logger using LOG_LEVEL and LOG_FORMAT, defaulting
// to "info" and "json".
func NewFromEnv(service string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(service, level, format)
}

// WithContext returns an entry carrying the service name and, if
// present, the trace id from ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)
	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// WithTraceID returns an entry carrying the service name and a trace id,
// without requiring a context.Context.
func (l *Logger) WithTraceID(traceID string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"service":  l.service,
		"trace_id": traceID,
	})
}

// WithFields returns an entry carrying the service name plus fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["service"] = l.service
	return l.Logger.WithFields(fields)
}

// WithError returns an entry carrying the service name and error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"service": l.service,
		"error":   err.Error(),
	})
}

// NewTraceID generates a new trace id for a probe cycle or request.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceIDContext attaches a trace id to ctx.
func WithTraceIDContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace id from ctx, or "" if absent.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// LogRequest logs an HTTP request handled by the reference API.
func (l *Logger) LogRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}).Info("http request")
}

// LogProbeCycle logs the outcome of a single probe attempt within the
// monitoring loop.
func (l *Logger) LogProbeCycle(ctx context.Context, nodeID int64, kind string, ok bool, latencyMs int, detail string) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"node_id":    nodeID,
		"probe_kind": kind,
		"ok":         ok,
		"latency_ms": latencyMs,
		"detail":     detail,
	})
	if ok {
		entry.Debug("probe completed")
	} else {
		entry.Warn("probe failed")
	}
}

// LogTransition logs a recorded status change.
func (l *Logger) LogTransition(ctx context.Context, nodeID int64, from, to string) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"node_id": nodeID,
		"from":    from,
		"to":      to,
	}).Info("status change")
}

// LogStoreWrite logs a store write attempted from inside the engine
// loop; failures here degrade durability, not liveness, per the
// engine's error handling policy.
func (l *Logger) LogStoreWrite(ctx context.Context, operation string, err error) {
	entry := l.WithContext(ctx).WithField("operation", operation)
	if err != nil {
		entry.WithError(err).Error("store write failed")
		return
	}
	entry.Debug("store write ok")
}

var defaultLogger *Logger

// InitDefault initializes the package-level default logger.
func InitDefault(service, level, format string) {
	defaultLogger = New(service, level, format)
}

// Default returns the package-level logger, creating a fallback one if
// InitDefault was never called.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = New("monitor", "info", "json")
	}
	return defaultLogger
}
