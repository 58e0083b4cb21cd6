package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLevel converts a settings string into a LogLevel. Unknown values map to INFO.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn:
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Configure installs the process-wide zap logger used by NewLogger.
// Output goes to stderr and, when logFile is set, also to that file.
func Configure(level LogLevel, logFile string) error {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level.zapLevel())
	config.Development = false
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	config.OutputPaths = []string{"stderr"}
	if logFile != "" {
		config.OutputPaths = append(config.OutputPaths, logFile)
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// Sync flushes the process-wide logger
func Sync() {
	_ = zap.L().Sync()
}

// Logger is a component-scoped structured logger
type Logger struct {
	component string
	z         *zap.Logger
}

// NewLogger creates a new logger for a specific component using the process-wide zap logger
func NewLogger(component string) *Logger {
	return New(zap.L(), component)
}

// New wraps an existing zap logger
func New(z *zap.Logger, component string) *Logger {
	return &Logger{
		component: component,
		z:         z.Named(component),
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return New(zap.NewNop(), "nop")
}

// NewObserved returns a logger that records entries in memory, for tests.
func NewObserved(level LogLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level.zapLevel())
	return New(zap.New(core), "test"), logs
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

func fields(context map[string]interface{}) []zap.Field {
	if len(context) == 0 {
		return nil
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, context[k]))
	}
	return out
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.z.Debug(message)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.z.Debug(message, fields(context)...)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.z.Info(message)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.z.Info(message, fields(context)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.z.Warn(message)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.z.Warn(message, fields(context)...)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.z.Error(message, zap.Error(err))
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.z.Error(message, append(fields(context), zap.Error(err))...)
}

// WithContext returns a logger with pre-set context fields
func (l *Logger) WithContext(context map[string]interface{}) *Logger {
	return &Logger{
		component: l.component,
		z:         l.z.With(fields(context)...),
	}
}
