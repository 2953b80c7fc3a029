package weight

import (
	"fmt"

	"github.com/arloliu/meshbal/types"
)

// Accessor reads region weights with a fallback policy.
type Accessor struct {
	tag      types.WeightTag
	fallback float64
}

// NewAccessor creates an accessor over tag.
//
// Parameters:
//   - tag: Weight source
//   - fallback: Weight used for untagged regions; zero or less makes untagged regions an error
//
// Returns:
//   - *Accessor: Weight accessor
func NewAccessor(tag types.WeightTag, fallback float64) *Accessor {
	return &Accessor{tag: tag, fallback: fallback}
}

// Region returns the weight of region e.
//
// Returns:
//   - float64: Tagged weight, or the fallback for untagged regions
//   - error: types.ErrMissingWeight if e is untagged and no fallback is configured
func (a *Accessor) Region(e types.Entity) (float64, error) {
	if w, ok := a.tag.Weight(e); ok {
		return w, nil
	}
	if a.fallback > 0 {
		return a.fallback, nil
	}

	return 0, fmt.Errorf("%w: entity %d", types.ErrMissingWeight, e)
}

// Sum returns the total weight of regions.
func (a *Accessor) Sum(regions []types.Entity) (float64, error) {
	var total float64
	for _, e := range regions {
		w, err := a.Region(e)
		if err != nil {
			return 0, err
		}
		total += w
	}

	return total, nil
}
