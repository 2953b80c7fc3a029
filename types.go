package meshbal

import "github.com/arloliu/meshbal/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern avoids import cycles: internal packages depend on `types`
// without depending on the root `meshbal` package, while users still get
// a convenient `meshbal.Mesh`, `meshbal.Logger`, etc.
type (
	Entity          = types.Entity
	PartID          = types.PartID
	Copy            = types.Copy
	Targets         = types.Targets
	RoundStats      = types.RoundStats
	RunStats        = types.RunStats
	ForcedMigration = types.ForcedMigration
	PlanRecord      = types.PlanRecord
	SelectorState   = types.SelectorState
)

// Re-export interfaces from the internal types package for convenience.
type (
	Mesh             = types.Mesh
	WeightTag        = types.WeightTag
	Distances        = types.Distances
	PlanView         = types.PlanView
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export SelectorState constants from the internal types package.
const (
	SelectorIdle    = types.SelectorIdle
	SelectorRunning = types.SelectorRunning
	SelectorDone    = types.SelectorDone
)

// NewTargets validates and wraps per-partition target weights.
//
// See types.NewTargets.
func NewTargets(weights map[PartID]float64) (*Targets, error) {
	return types.NewTargets(weights)
}
