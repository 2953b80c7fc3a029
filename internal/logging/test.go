package logging

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/meshbal/types"
)

// TestLogger implements types.Logger using testing.T for output.
type TestLogger struct {
	t testing.TB
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a logger that writes through t.Logf so output shows with -v or on failure.
//
// Example:
//
//	func TestSelection(t *testing.T) {
//	    sel, _ := strategy.NewVertexSelector(m, w, strategy.WithLogger(logging.NewTest(t)))
//	}
func NewTest(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *TestLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *TestLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *TestLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Fatalf("FATAL %s%s", msg, fields(keysAndValues))
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	l.t.Helper()
	l.t.Logf("%-5s %s%s", level, msg, fields(keysAndValues))
}

// fields renders key/value pairs as " k=v k=v". An odd trailing key is
// rendered with a "!MISSING" value.
func fields(keysAndValues []any) string {
	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		var v any = "!MISSING"
		if i+1 < len(keysAndValues) {
			v = keysAndValues[i+1]
		}
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], v)
	}

	return sb.String()
}
