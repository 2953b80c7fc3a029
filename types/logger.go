package types

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger, slog adapters and other structured loggers.
// All methods accept alternating key-value pairs for structured fields.
type Logger interface {
	// Debug logs a message at DebugLevel. Per-vertex and per-round diagnostics use this level.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and terminates the process.
	//
	// The selector never calls Fatal; precondition violations are returned as errors.
	Fatal(msg string, keysAndValues ...any)
}
