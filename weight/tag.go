package weight

import (
	"fmt"
	"math"
	"sync"

	"github.com/arloliu/meshbal/types"
)

// Tag is a writable weight tag backed by a map.
//
// Tag is safe for concurrent use; selection itself only reads it.
type Tag struct {
	mu     sync.RWMutex
	values map[types.Entity]float64
}

var _ types.WeightTag = (*Tag)(nil)

// NewTag creates an empty weight tag.
func NewTag() *Tag {
	return &Tag{values: make(map[types.Entity]float64)}
}

// Set attaches weight w to region e, replacing any previous value.
//
// Returns:
//   - error: types.ErrInvalidWeight if w is negative, NaN or infinite
func (t *Tag) Set(e types.Entity, w float64) error {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: entity %d weight %v", types.ErrInvalidWeight, e, w)
	}

	t.mu.Lock()
	t.values[e] = w
	t.mu.Unlock()

	return nil
}

// Weight returns the weight attached to e.
func (t *Tag) Weight(e types.Entity) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.values[e]

	return w, ok
}

// Remove detaches the weight of e.
func (t *Tag) Remove(e types.Entity) {
	t.mu.Lock()
	delete(t.values, e)
	t.mu.Unlock()
}

// Len returns the number of tagged entities.
func (t *Tag) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.values)
}
