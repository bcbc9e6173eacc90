// Package log provides a structured logging interface for koala-lightgbm.
//
// The Logger interface is slog-compatible so the backend can be swapped; the
// default backend is zerolog writing JSON lines. Loggers are obtained from a
// process-wide provider:
//
//	logger := log.GetLoggerWithName("koala.lightgbm").With(
//	    log.ModelNameKey, "Regressor",
//	)
//	logger.Info("fit started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. An error value is rendered with its
// message and, when it carries one, a cockroachdb/errors stack trace. A value
// implementing zerolog.LogObjectMarshaler is rendered as a nested object.
type Logger interface {
	// Debug logs detailed diagnostic information, normally disabled in production.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that are suspicious but do not stop the operation.
	Warn(msg string, fields ...any)

	// Error logs error conditions. If the first field is an error it is
	// recorded under the "error" key without needing an explicit key.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
	// LevelSilent disables every record.
	LevelSilent Level = 12
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
