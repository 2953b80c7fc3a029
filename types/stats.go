package types

import "time"

// RoundStats summarizes one selection round.
type RoundStats struct {
	// Sequence is the caller-supplied sequence number of the run.
	Sequence int64 `json:"sequence"`

	// Round is the zero-based round index within the run.
	Round int `json:"round"`

	// MaxCavity is the cavity-size cap in effect for voluntary moves.
	MaxCavity int `json:"maxCavity"`

	// Weight is the weight this round added to the plan.
	Weight float64 `json:"weight"`

	// Visited counts the vertices taken from the boundary source.
	Visited int `json:"visited"`

	// Assigned counts cavities moved voluntarily.
	Assigned int `json:"assigned"`

	// Forced counts disconnected cavities moved regardless of targets.
	Forced int `json:"forced"`

	// Deferred counts vertices left unresolved for a later round.
	Deferred int `json:"deferred"`

	// Skipped counts vertices whose cavity was empty.
	Skipped int `json:"skipped"`

	// EarlyExit is true when the round stopped because the target total was exceeded.
	EarlyExit bool `json:"earlyExit"`

	// Duration is the wall time spent in the round.
	Duration time.Duration `json:"duration"`
}

// RunStats summarizes a complete multi-round selection run.
type RunStats struct {
	// Sequence is the caller-supplied sequence number of the run.
	Sequence int64 `json:"sequence"`

	// Rounds holds per-round statistics in execution order.
	Rounds []RoundStats `json:"rounds"`

	// TotalWeight is the weight committed to the plan across all rounds.
	TotalWeight float64 `json:"totalWeight"`

	// Sending is the committed weight per destination partition.
	Sending map[PartID]float64 `json:"sending"`

	// Regions is the number of regions in the plan.
	Regions int `json:"regions"`

	// Forced is the number of forced migrations across all rounds.
	Forced int `json:"forced"`

	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration"`
}

// ForcedMigration describes a disconnected cavity migrated regardless of targets.
type ForcedMigration struct {
	Sequence int64
	Round    int
	Vertex   Entity
	Dest     PartID
	Cavity   []Entity
	Weight   float64
}

// PlanRecord is the serialized migration plan handed to the execution stage.
type PlanRecord struct {
	// Version is the caller-supplied run sequence number.
	Version int64 `json:"version"`

	// Source is the partition whose regions the plan moves.
	Source PartID `json:"source"`

	// Moves lists planned regions per destination partition, ascending.
	Moves map[PartID][]Entity `json:"moves"`

	// Regions is the total number of planned regions.
	Regions int `json:"regions"`

	// TotalWeight is the weight committed by the run.
	TotalWeight float64 `json:"totalWeight"`

	// Fingerprint is a content hash of the plan's region-to-destination pairs.
	Fingerprint uint64 `json:"fingerprint"`

	// CreatedAt is when the record was built.
	CreatedAt time.Time `json:"createdAt"`
}
