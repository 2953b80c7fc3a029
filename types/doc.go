// Package types provides core type definitions and interfaces for the meshbal library.
//
// This package contains shared types that are used across multiple packages in the
// meshbal library. By keeping these types in a separate package, we avoid import cycles
// between the main meshbal package and its internal implementations.
//
// Key types:
//   - Mesh: Capability interface over a partition's local mesh
//   - Entity, PartID, Copy: Mesh handles and remote-copy bookkeeping
//   - Targets: Per-partition target weights for one balancing pass
//   - SelectorState: Selector lifecycle state
//   - RoundStats, RunStats: Selection statistics
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
