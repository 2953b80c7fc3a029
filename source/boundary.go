package source

import (
	"cmp"
	"slices"

	"github.com/arloliu/meshbal/types"
)

// Boundary yields the labeled vertices of a mesh in ascending distance order.
//
// Vertices closest to the partition boundary come first. Ties keep the mesh's
// Vertices() iteration order. Vertices without a label are not produced.
//
// Boundary is not safe for concurrent use.
type Boundary struct {
	order []types.Entity
	pos   int
}

// NewBoundary builds the visiting order for one round.
//
// Parameters:
//   - m: Local mesh
//   - labels: Boundary distance of each vertex
//
// Returns:
//   - *Boundary: Sequence positioned at its first vertex
//
// Example:
//
//	src := source.NewBoundary(m, labels)
//	for v, ok := src.Next(); ok; v, ok = src.Next() {
//	    // visit v
//	}
func NewBoundary(m types.Mesh, labels types.Distances) *Boundary {
	type labeled struct {
		v    types.Entity
		dist int
	}

	vertices := m.Vertices()
	items := make([]labeled, 0, len(vertices))
	for _, v := range vertices {
		if d, ok := labels.Distance(v); ok {
			items = append(items, labeled{v: v, dist: d})
		}
	}
	slices.SortStableFunc(items, func(a, b labeled) int {
		return cmp.Compare(a.dist, b.dist)
	})

	order := make([]types.Entity, len(items))
	for i, it := range items {
		order[i] = it.v
	}

	return &Boundary{order: order}
}

// Next returns the next vertex, or false once the sequence is exhausted.
func (b *Boundary) Next() (types.Entity, bool) {
	if b.pos >= len(b.order) {
		return 0, false
	}
	v := b.order[b.pos]
	b.pos++

	return v, true
}

// Len returns the total number of vertices in the sequence.
func (b *Boundary) Len() int {
	return len(b.order)
}

// Reset restarts the sequence from the first vertex.
//
// Select builds a new Boundary every round so no state carries between
// rounds; Reset replays the same order without sorting again.
func (b *Boundary) Reset() {
	b.pos = 0
}
