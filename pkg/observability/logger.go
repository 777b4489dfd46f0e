package observability

import (
	"context"
	"time"
)

type SanitizerFunc func(key string, value any) any

type ErrorNotifier interface {
	Notify(ctx context.Context, entry LogEntry) error
}

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	App         string `json:"app,omitempty"`
	Environment string `json:"environment,omitempty"`
	Stack       string `json:"stack,omitempty"`
}

// StructuredLogger is the logging surface used across synthesis and the operator CLI.
//
// Scoping calls (With*) return derived loggers and never mutate the receiver.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithField(key string, value any) StructuredLogger
	WithFields(fields map[string]any) StructuredLogger

	WithApp(app string) StructuredLogger
	WithEnvironment(environment string) StructuredLogger
	WithStack(stack string) StructuredLogger

	Flush(ctx context.Context) error
	Close() error
	IsHealthy() bool
	GetStats() LoggerStats
}

type LoggerStats struct {
	LastFlush      time.Time     `json:"last_flush"`
	LastError      string        `json:"last_error,omitempty"`
	EntriesLogged  int64         `json:"entries_logged"`
	EntriesDropped int64         `json:"entries_dropped"`
	FlushCount     int64         `json:"flush_count"`
	ErrorCount     int64         `json:"error_count"`
	AverageFlush   time.Duration `json:"average_flush_time"`
}

// LoggerConfig configures logger implementations.
type LoggerConfig struct {
	Format       string        `json:"format" yaml:"format"`
	Level        string        `json:"level" yaml:"level"`
	RetryDelay   time.Duration `json:"retry_delay" yaml:"retry_delay"`
	BufferSize   int           `json:"buffer_size" yaml:"buffer_size"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	EnableStack  bool          `json:"enable_stack" yaml:"enable_stack"`
	EnableCaller bool          `json:"enable_caller" yaml:"enable_caller"`
}
