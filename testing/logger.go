package testing

import (
	"testing"

	"github.com/arloliu/meshbal/internal/logging"
	"github.com/arloliu/meshbal/types"
)

// NewTestLogger creates a logger that writes to the test log.
//
// Output is shown for failing tests or with go test -v.
func NewTestLogger(t testing.TB) types.Logger {
	return logging.NewTest(t)
}
