// Package graphdist labels mesh vertices with their hop distance to the
// partition boundary.
//
// The boundary is the set of vertices that have at least one remote copy.
// Distances are breadth-first hop counts over vertex-edge-vertex adjacency.
package graphdist

import (
	"fmt"
	"maps"

	"github.com/arloliu/meshbal/types"
)

// Labels maps vertices to their boundary distance.
//
// Labels is immutable after construction and safe for concurrent reads.
type Labels struct {
	dist map[types.Entity]int
	max  int
}

var _ types.Distances = (*Labels)(nil)

// Option configures Measure.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth stops the search after depth hops. A negative depth means unlimited.
//
// Vertices farther than depth from the boundary stay unlabeled.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// queueItem pairs a vertex with its BFS depth.
type queueItem struct {
	v     types.Entity
	depth int
}

// walker holds mutable BFS state.
type walker struct {
	mesh   types.Mesh
	opts   options
	queue  []queueItem
	labels *Labels
}

// Measure computes boundary distances for every vertex reachable from the boundary.
//
// Parameters:
//   - m: Local mesh; must have dimension >= 1
//   - opts: Optional configuration (WithMaxDepth)
//
// Returns:
//   - *Labels: Distance labels; empty if the mesh has no shared vertices
//   - error: types.ErrMeshRequired or types.ErrUnsupportedDimension
//
// Example:
//
//	labels, err := graphdist.Measure(m, graphdist.WithMaxDepth(8))
//	if err != nil {
//	    return err
//	}
//	d, ok := labels.Distance(v)
func Measure(m types.Mesh, opts ...Option) (*Labels, error) {
	if m == nil {
		return nil, types.ErrMeshRequired
	}
	if m.Dimension() < 1 {
		return nil, fmt.Errorf("%w: distance labeling needs edges, got dimension %d",
			types.ErrUnsupportedDimension, m.Dimension())
	}

	o := options{maxDepth: -1}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	vertices := m.Vertices()
	w := &walker{
		mesh:   m,
		opts:   o,
		queue:  make([]queueItem, 0, len(vertices)),
		labels: &Labels{dist: make(map[types.Entity]int, len(vertices))},
	}

	// Seed with every shared vertex in mesh order.
	for _, v := range vertices {
		if len(m.Remotes(v)) > 0 {
			w.enqueue(v, 0)
		}
	}
	w.loop()

	return w.labels, nil
}

func (w *walker) enqueue(v types.Entity, depth int) {
	w.labels.dist[v] = depth
	w.labels.max = max(w.labels.max, depth)
	w.queue = append(w.queue, queueItem{v: v, depth: depth})
}

func (w *walker) loop() {
	for len(w.queue) > 0 {
		item := w.queue[0]
		w.queue = w.queue[1:]

		next := item.depth + 1
		if w.opts.maxDepth >= 0 && next > w.opts.maxDepth {
			continue
		}
		for _, nbr := range w.neighbors(item.v) {
			if _, seen := w.labels.dist[nbr]; !seen {
				w.enqueue(nbr, next)
			}
		}
	}
}

// neighbors returns the vertices sharing an edge with v.
func (w *walker) neighbors(v types.Entity) []types.Entity {
	var out []types.Entity
	for _, edge := range w.mesh.Adjacent(v, 1) {
		for _, u := range w.mesh.Downward(edge, 0) {
			if u != v {
				out = append(out, u)
			}
		}
	}

	return out
}

// FromMap builds labels from caller-supplied distances.
//
// Returns an error wrapping types.ErrInvalidConfig if any distance is negative.
func FromMap(dist map[types.Entity]int) (*Labels, error) {
	l := &Labels{dist: make(map[types.Entity]int, len(dist))}
	for v, d := range dist {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative distance %d for vertex %d", types.ErrInvalidConfig, d, v)
		}
		l.dist[v] = d
		l.max = max(l.max, d)
	}

	return l, nil
}

// Distance returns the label of v and whether v was reached.
func (l *Labels) Distance(v types.Entity) (int, bool) {
	d, ok := l.dist[v]
	return d, ok
}

// Len returns the number of labeled vertices.
func (l *Labels) Len() int {
	return len(l.dist)
}

// Max returns the largest assigned distance, 0 when empty.
func (l *Labels) Max() int {
	return l.max
}

// Map returns a copy of all labels.
func (l *Labels) Map() map[types.Entity]int {
	return maps.Clone(l.dist)
}
