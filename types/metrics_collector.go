package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Balancers for different partitions may share one collector and call it from
// separate goroutines, so implementations must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SelectorMetrics
	PublisherMetrics
}

// SelectorMetrics defines metrics for migration-plan selection.
type SelectorMetrics interface {
	// RecordStateTransition records a selector state transition.
	//
	// Parameters:
	//   - from: Previous state
	//   - to: New state
	//   - duration: Seconds spent in the previous state
	RecordStateTransition(from, to SelectorState, duration float64)

	// RecordRound records the outcome of one selection round.
	//
	// Parameters:
	//   - maxCavity: Cavity-size cap of the round
	//   - weight: Weight committed by the round
	//   - assigned: Cavities moved voluntarily
	//   - forced: Disconnected cavities moved regardless of targets
	//   - deferred: Vertices left for a later round
	//   - duration: Round duration in seconds
	RecordRound(maxCavity int, weight float64, assigned, forced, deferred int, duration float64)

	// RecordRun records a complete selection run.
	//
	// Parameters:
	//   - duration: Run duration in seconds
	//   - totalWeight: Weight committed across all rounds
	//   - regions: Number of regions in the resulting plan
	RecordRun(duration float64, totalWeight float64, regions int)
}

// PublisherMetrics defines metrics for plan hand-off.
type PublisherMetrics interface {
	// RecordPlanPublished records a plan written to the hand-off store.
	RecordPlanPublished(regions int, version int64)

	// RecordKVOperationDuration records NATS KV operation latency.
	//
	// Parameters:
	//   - operation: Operation type ("get", "put", "delete", "keys")
	//   - duration: Time taken in seconds
	RecordKVOperationDuration(operation string, duration float64)
}
