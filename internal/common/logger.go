package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string to a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}

// Logger wraps slog with the level it was built for and helpers that attach
// notification/dispatch context.
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a text logger writing to stderr.
func NewLogger(level LogLevel) *Logger {
	return NewTextLogger(os.Stderr, level)
}

// NewTextLogger creates a text logger writing to w. Sensitive attributes are masked.
func NewTextLogger(w io.Writer, level LogLevel) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
	return &Logger{
		Logger: slog.New(newMaskingHandler(slog.NewTextHandler(w, opts))),
		level:  level,
	}
}

// NewJSONLogger creates a structured logger with JSON output on stderr.
func NewJSONLogger(level LogLevel) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
	return &Logger{
		Logger: slog.New(newMaskingHandler(slog.NewJSONHandler(os.Stderr, opts))),
		level:  level,
	}
}

// NewColorLogger creates a colorized logger on stderr.
func NewColorLogger(level LogLevel) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
	h := NewColorHandler(os.Stderr, opts)
	h.SetColorEnabled(true)
	return &Logger{
		Logger: slog.New(h),
		level:  level,
	}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithNotification returns a logger tagged with the notification being processed.
func (l *Logger) WithNotification(name, uuid string) *Logger {
	return l.with("notification", name, "notification_uuid", uuid)
}

// WithVariable returns a logger tagged with a template variable name.
func (l *Logger) WithVariable(name string) *Logger {
	return l.with("variable", name)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return l.with("store", storeType)
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, url string) *Logger {
	return l.with("method", method, "url", MaskSensitiveData(url))
}

var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}

// LogInfo logs informational message
func LogInfo(msg string, attrs ...any) {
	defaultLogger.Info(msg, attrs...)
}

// LogDebug logs debug message
func LogDebug(msg string, attrs ...any) {
	defaultLogger.Debug(msg, attrs...)
}

// LogWarn logs warning message
func LogWarn(msg string, attrs ...any) {
	defaultLogger.Warn(msg, attrs...)
}
