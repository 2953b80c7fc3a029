package types

import (
	"fmt"
	"math"
	"slices"
)

// Targets holds the desired incoming weight per destination partition.
//
// Targets are read-only once constructed; the selector never mutates them.
type Targets struct {
	weights map[PartID]float64
	parts   []PartID
	total   float64
}

// NewTargets creates targets from a partition-to-weight map.
//
// Parameters:
//   - weights: Desired incoming weight per destination partition
//
// Returns:
//   - *Targets: Immutable targets with a precomputed total
//   - error: ErrInvalidTarget if any weight is negative, NaN or infinite
func NewTargets(weights map[PartID]float64) (*Targets, error) {
	t := &Targets{
		weights: make(map[PartID]float64, len(weights)),
		parts:   make([]PartID, 0, len(weights)),
	}

	for part, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: partition %d has weight %v", ErrInvalidTarget, part, w)
		}
		t.weights[part] = w
		t.parts = append(t.parts, part)
		t.total += w
	}
	slices.Sort(t.parts)

	return t, nil
}

// Has reports whether part is a destination with a target.
func (t *Targets) Has(part PartID) bool {
	_, ok := t.weights[part]
	return ok
}

// Get returns the target weight of part, zero when part has no target.
func (t *Targets) Get(part PartID) float64 {
	return t.weights[part]
}

// Total returns the sum of all target weights.
func (t *Targets) Total() float64 {
	return t.total
}

// Parts returns the destination partitions in ascending order.
func (t *Targets) Parts() []PartID {
	return slices.Clone(t.parts)
}

// Len returns the number of destination partitions.
func (t *Targets) Len() int {
	return len(t.parts)
}
