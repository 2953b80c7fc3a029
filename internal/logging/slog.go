// Package logging provides types.Logger implementations used across meshbal.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/arloliu/meshbal/types"
)

// SlogLogger implements types.Logger using Go's standard log/slog package.
type SlogLogger struct {
	logger *slog.Logger
}

// Compile-time assertion that SlogLogger implements Logger.
var _ types.Logger = (*SlogLogger)(nil)

// NewSlog creates a new slog-based logger.
//
// Parameters:
//   - logger: The underlying slog.Logger instance to use
//
// Returns:
//   - *SlogLogger: A new logger instance that wraps the provided slog.Logger
//
// Example:
//
//	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	logger := NewSlog(slog.New(handler))
//	logger.Info("selection finished", "regions", 42)
func NewSlog(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogLogger{logger: logger}
}

// NewSlogDefault creates a new slog-based logger backed by slog.Default().
func NewSlogDefault() *SlogLogger {
	return &SlogLogger{logger: slog.Default()}
}

// NewSlogText creates a logger writing human-readable text records at the given level.
//
// Parameters:
//   - w: Destination writer (os.Stderr when nil)
//   - level: Minimum level to emit
//
// Returns:
//   - *SlogLogger: Text logger
func NewSlogText(w io.Writer, level slog.Level) *SlogLogger {
	if w == nil {
		w = os.Stderr
	}

	return &SlogLogger{logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NewSlogJSON creates a logger writing JSON records at the given level.
//
// Parameters:
//   - w: Destination writer (os.Stderr when nil)
//   - level: Minimum level to emit
//
// Returns:
//   - *SlogLogger: JSON logger
func NewSlogJSON(w io.Writer, level slog.Level) *SlogLogger {
	if w == nil {
		w = os.Stderr
	}

	return &SlogLogger{logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// With returns a logger that adds the given key-value pairs to every record.
//
// NewBalancer uses it to tag all output with the local partition id.
func (l *SlogLogger) With(keysAndValues ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(keysAndValues...)}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Info logs an info-level message with optional key-value pairs.
func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// Error logs an error-level message with optional key-value pairs.
func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

// Fatal logs at Error level (slog has no Fatal level) and exits the process.
func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
	os.Exit(1) //nolint:revive // Fatal should exit the program
}
