// Package testing provides test utilities for the meshbal library.
//
// This package offers helpers for setting up test environments, particularly
// an embedded NATS server for plan hand-off tests. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreatePlanBucket: Memory-backed KV bucket for plan records
//   - ReadPlans: Decodes every published plan record in a bucket
//   - NewTestLogger: Logger writing to testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    meshtest "github.com/arloliu/meshbal/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := meshtest.StartEmbeddedNATS(t)
//	    kv := meshtest.CreatePlanBucket(t, nc, "plans")
//	    // Use kv for your tests
//	}
package testing
