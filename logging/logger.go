// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing embedders to plug
// any structured logger. It also offers a richer InkfoldLogger with contextual
// helpers (component, run, task) and a domain specific helper for run
// lifecycle reporting.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface used throughout Inkfold.
// This allows embedders to provide their own logger implementation or use
// the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// InkfoldLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via With* methods.
type InkfoldLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	runID     string
	taskID    string
}

// LoggerConfig configures construction of an InkfoldLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	RunID       string
	TaskID      string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true, CustomAttrs: map[string]any{}}
}

// NewLogger builds an InkfoldLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *InkfoldLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &InkfoldLogger{logger: slog.New(handler), level: cfg.Level, context: map[string]any{}, component: cfg.Component, runID: cfg.RunID, taskID: cfg.TaskID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *InkfoldLogger) clone() *InkfoldLogger {
	nl := *l
	nl.context = map[string]any{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *InkfoldLogger) WithContext(key string, value any) *InkfoldLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (runner, hub, taskstore, etc.).
func (l *InkfoldLogger) WithComponent(c string) *InkfoldLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRun attaches run and task identifiers.
func (l *InkfoldLogger) WithRun(runID, taskID string) *InkfoldLogger {
	nl := l.clone()
	nl.runID = runID
	nl.taskID = taskID
	return nl
}

func (l *InkfoldLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+4)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.runID != "" {
		attrs = append(attrs, slog.String("run_id", l.runID))
	}
	if l.taskID != "" {
		attrs = append(attrs, slog.String("task_id", l.taskID))
	}
	attrs = append(attrs, slog.Time("timestamp", time.Now()))
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *InkfoldLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	attrs := l.buildAttrs()
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level.
func (l *InkfoldLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *InkfoldLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *InkfoldLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *InkfoldLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// ErrorWithStack logs an error plus a runtime stack snapshot.
func (l *InkfoldLogger) ErrorWithStack(err error, msg string, args ...any) {
	if l.level > LogLevelError {
		return
	}
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("error", err.Error()), slog.String("error_type", fmt.Sprintf("%T", err)))
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	attrs = append(attrs, slog.String("stack_trace", string(stack[:n])))
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// LogRunFinished records the terminal outcome of a run with its duration.
func (l *InkfoldLogger) LogRunFinished(agent, status string, dur time.Duration, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("agent", agent), slog.String("status", status), slog.Duration("duration", dur))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "Run finished"
	if status == "error" {
		level = slog.LevelError
		msg = "Run failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *InkfoldLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new InkfoldLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *InkfoldLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
