package mesh

import (
	"fmt"
	"slices"

	"github.com/arloliu/meshbal/types"
	"github.com/arloliu/meshbal/weight"
)

type gridKind uint8

const (
	gridVertex gridKind = iota
	gridHEdge
	gridVEdge
	gridQuad
)

// gridKey identifies a global entity of a structured quad grid.
type gridKey struct {
	kind gridKind
	x, y int
}

// Grid is a globally partitioned structured quad mesh.
//
// Every partition gets its own Local view holding the quads it owns, their
// closure and remote copies pointing at the other partitions' handles.
type Grid struct {
	NX, NY int

	owner func(i, j int) types.PartID
	parts map[types.PartID]*Local
	ids   []types.PartID
}

// Local is one partition's view of a Grid.
type Local struct {
	ID      types.PartID
	Mesh    *Memory
	Weights *weight.Tag

	handles map[gridKey]types.Entity
	coords  map[types.Entity]gridKey
}

// GridOption configures NewQuadGrid.
type GridOption func(*gridOptions)

type gridOptions struct {
	weight func(i, j int) float64
}

// WithRegionWeight sets the weight of the quad at column i, row j. Default: 1.
func WithRegionWeight(fn func(i, j int) float64) GridOption {
	return func(o *gridOptions) {
		o.weight = fn
	}
}

// Stripes returns an owner function splitting nx columns into parts vertical stripes.
//
// Partition ids are 0..parts-1 from left to right. Leftover columns go to the
// last stripe.
func Stripes(nx, parts int) func(i, j int) types.PartID {
	width := max(nx/max(parts, 1), 1)

	return func(i, _ int) types.PartID {
		p := min(i/width, parts-1)
		return types.PartID(p) //nolint:gosec // bounded by parts
	}
}

// NewQuadGrid builds the local views of an nx by ny quad grid.
//
// Parameters:
//   - nx, ny: Number of quad columns and rows (both > 0)
//   - owner: Partition owning the quad at column i, row j
//   - opts: Optional configuration (WithRegionWeight)
//
// Returns:
//   - *Grid: All partitions' local meshes with remote copies wired between them
//   - error: Invalid dimensions or weights
func NewQuadGrid(nx, ny int, owner func(i, j int) types.PartID, opts ...GridOption) (*Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %dx%d", nx, ny)
	}
	if owner == nil {
		return nil, fmt.Errorf("grid owner function is required")
	}

	o := gridOptions{weight: func(int, int) float64 { return 1 }}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	g := &Grid{NX: nx, NY: ny, owner: owner, parts: make(map[types.PartID]*Local)}

	owned := make(map[types.PartID][]gridKey)
	for j := range ny {
		for i := range nx {
			p := owner(i, j)
			owned[p] = append(owned[p], gridKey{kind: gridQuad, x: i, y: j})
		}
	}
	for p := range owned {
		g.ids = append(g.ids, p)
	}
	slices.Sort(g.ids)

	for _, p := range g.ids {
		local, err := g.buildLocal(p, owned[p], o)
		if err != nil {
			return nil, err
		}
		g.parts[p] = local
	}

	if err := g.wireRemotes(); err != nil {
		return nil, err
	}

	return g, nil
}

// Part returns the local view of partition p, nil if p owns no quads.
func (g *Grid) Part(p types.PartID) *Local {
	return g.parts[p]
}

// PartIDs returns the partitions owning at least one quad, ascending.
func (g *Grid) PartIDs() []types.PartID {
	return slices.Clone(g.ids)
}

// Owner returns the partition owning the quad at column i, row j.
func (g *Grid) Owner(i, j int) types.PartID {
	return g.owner(i, j)
}

// RegionAt returns the local handle of the quad at column i, row j.
func (l *Local) RegionAt(i, j int) (types.Entity, bool) {
	e, ok := l.handles[gridKey{kind: gridQuad, x: i, y: j}]
	return e, ok
}

// VertexAt returns the local handle of the grid vertex at (x, y).
func (l *Local) VertexAt(x, y int) (types.Entity, bool) {
	e, ok := l.handles[gridKey{kind: gridVertex, x: x, y: y}]
	return e, ok
}

// RegionCoords returns the column and row of a local quad handle.
func (l *Local) RegionCoords(e types.Entity) (int, int, bool) {
	k, ok := l.coords[e]
	if !ok || k.kind != gridQuad {
		return 0, 0, false
	}

	return k.x, k.y, true
}

// Regions returns the local quad handles in creation order.
func (l *Local) Regions() []types.Entity {
	return l.Mesh.Entities(2)
}

func (g *Grid) buildLocal(p types.PartID, quads []gridKey, o gridOptions) (*Local, error) {
	m, err := NewMemory(2)
	if err != nil {
		return nil, err
	}

	local := &Local{
		ID:      p,
		Mesh:    m,
		Weights: weight.NewTag(),
		handles: make(map[gridKey]types.Entity),
		coords:  make(map[types.Entity]gridKey),
	}

	// Closure of the owned quads, added dimension by dimension in global order.
	need := make(map[gridKey]struct{})
	for _, q := range quads {
		for _, k := range quadClosure(q.x, q.y) {
			need[k] = struct{}{}
		}
	}

	add := func(k gridKey, dim int, down ...types.Entity) error {
		e, err := m.AddEntity(dim, down...)
		if err != nil {
			return fmt.Errorf("partition %d: %w", p, err)
		}
		local.handles[k] = e
		local.coords[e] = k

		return nil
	}

	for y := 0; y <= g.NY; y++ {
		for x := 0; x <= g.NX; x++ {
			k := gridKey{kind: gridVertex, x: x, y: y}
			if _, ok := need[k]; ok {
				if err := add(k, 0); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, kind := range []gridKind{gridHEdge, gridVEdge} {
		for y := 0; y <= g.NY; y++ {
			for x := 0; x <= g.NX; x++ {
				k := gridKey{kind: kind, x: x, y: y}
				if _, ok := need[k]; !ok {
					continue
				}
				a, b := edgeEnds(k)
				if err := add(k, 1, local.handles[a], local.handles[b]); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, q := range quads {
		edges := quadEdges(q.x, q.y)
		down := make([]types.Entity, len(edges))
		for i, k := range edges {
			down[i] = local.handles[k]
		}
		if err := add(q, 2, down...); err != nil {
			return nil, err
		}
		if err := local.Weights.Set(local.handles[q], o.weight(q.x, q.y)); err != nil {
			return nil, fmt.Errorf("quad (%d,%d): %w", q.x, q.y, err)
		}
	}

	return local, nil
}

// wireRemotes records, on every shared vertex and edge, the handles other partitions use for it.
func (g *Grid) wireRemotes() error {
	for _, p := range g.ids {
		local := g.parts[p]
		keys := make([]gridKey, 0, len(local.handles))
		for k := range local.handles {
			if k.kind != gridQuad {
				keys = append(keys, k)
			}
		}

		for _, k := range keys {
			for _, q := range g.sharers(k) {
				if q == p {
					continue
				}
				remote, ok := g.parts[q].handles[k]
				if !ok {
					return fmt.Errorf("partition %d is missing shared entity %v", q, k)
				}
				if err := local.Mesh.AddRemote(local.handles[k], q, remote); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// sharers returns the partitions owning a quad incident to the vertex or edge k.
func (g *Grid) sharers(k gridKey) []types.PartID {
	var cells [][2]int
	switch k.kind {
	case gridVertex:
		cells = [][2]int{{k.x - 1, k.y - 1}, {k.x, k.y - 1}, {k.x - 1, k.y}, {k.x, k.y}}
	case gridHEdge:
		cells = [][2]int{{k.x, k.y - 1}, {k.x, k.y}}
	case gridVEdge:
		cells = [][2]int{{k.x - 1, k.y}, {k.x, k.y}}
	default:
		return nil
	}

	var parts []types.PartID
	for _, c := range cells {
		if c[0] < 0 || c[1] < 0 || c[0] >= g.NX || c[1] >= g.NY {
			continue
		}
		p := g.owner(c[0], c[1])
		if !slices.Contains(parts, p) {
			parts = append(parts, p)
		}
	}

	return parts
}

func quadEdges(i, j int) []gridKey {
	return []gridKey{
		{kind: gridHEdge, x: i, y: j},
		{kind: gridVEdge, x: i + 1, y: j},
		{kind: gridHEdge, x: i, y: j + 1},
		{kind: gridVEdge, x: i, y: j},
	}
}

func quadClosure(i, j int) []gridKey {
	keys := quadEdges(i, j)
	for _, v := range [][2]int{{i, j}, {i + 1, j}, {i + 1, j + 1}, {i, j + 1}} {
		keys = append(keys, gridKey{kind: gridVertex, x: v[0], y: v[1]})
	}

	return keys
}

func edgeEnds(k gridKey) (gridKey, gridKey) {
	a := gridKey{kind: gridVertex, x: k.x, y: k.y}
	if k.kind == gridHEdge {
		return a, gridKey{kind: gridVertex, x: k.x + 1, y: k.y}
	}

	return a, gridKey{kind: gridVertex, x: k.x, y: k.y + 1}
}
