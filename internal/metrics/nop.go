// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/meshbal/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	sel, err := strategy.NewVertexSelector(m, w, strategy.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SelectorMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.SelectorState, _ /* duration */ float64) {
	// No-op
}

// RecordRound discards the round metric.
func (n *NopMetrics) RecordRound(_ /* maxCavity */ int, _ /* weight */ float64, _ /* assigned */, _ /* forced */, _ /* deferred */ int, _ /* duration */ float64) {
	// No-op
}

// RecordRun discards the run metric.
func (n *NopMetrics) RecordRun(_ /* duration */ float64, _ /* totalWeight */ float64, _ /* regions */ int) {
	// No-op
}

// PublisherMetrics implementation

// RecordPlanPublished discards the publish metric.
func (n *NopMetrics) RecordPlanPublished(_ /* regions */ int, _ /* version */ int64) {
	// No-op
}

// RecordKVOperationDuration discards the KV latency metric.
func (n *NopMetrics) RecordKVOperationDuration(_ /* operation */ string, _ /* duration */ float64) {
	// No-op
}
