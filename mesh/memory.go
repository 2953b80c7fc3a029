package mesh

import (
	"fmt"
	"slices"

	"github.com/arloliu/meshbal/types"
)

// Memory is an in-memory mesh for one partition.
//
// Entity handles are dense and assigned in creation order, so iteration order
// equals creation order. Memory is not safe for concurrent mutation; once built
// it may be read from multiple goroutines.
type Memory struct {
	dim     int
	dims    []int
	down    [][]types.Entity
	up      [][]types.Entity
	byDim   [][]types.Entity
	remotes map[types.Entity][]types.Copy
}

var _ types.Mesh = (*Memory)(nil)

// NewMemory creates an empty mesh whose regions have dimension dim.
//
// Returns:
//   - *Memory: Empty mesh
//   - error: types.ErrUnsupportedDimension unless 1 <= dim <= 3
func NewMemory(dim int) (*Memory, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: %d", types.ErrUnsupportedDimension, dim)
	}

	return &Memory{
		dim:     dim,
		byDim:   make([][]types.Entity, dim+1),
		remotes: make(map[types.Entity][]types.Copy),
	}, nil
}

// AddEntity creates an entity of dimension dim bounded by the given (dim-1)-entities.
//
// Parameters:
//   - dim: Entity dimension, 0 through the mesh dimension
//   - down: Bounding entities one dimension lower; must be empty for vertices
//
// Returns:
//   - types.Entity: Handle of the new entity
//   - error: Invalid dimension, unknown or wrong-dimension bounding entity, or duplicates
func (m *Memory) AddEntity(dim int, down ...types.Entity) (types.Entity, error) {
	if dim < 0 || dim > m.dim {
		return 0, fmt.Errorf("entity dimension %d outside [0,%d]", dim, m.dim)
	}
	if dim == 0 && len(down) > 0 {
		return 0, fmt.Errorf("vertex cannot have downward adjacency")
	}
	if dim > 0 && len(down) == 0 {
		return 0, fmt.Errorf("dimension-%d entity requires bounding entities", dim)
	}

	for i, d := range down {
		if !m.valid(d) {
			return 0, fmt.Errorf("unknown bounding entity %d", d)
		}
		if m.dims[d] != dim-1 {
			return 0, fmt.Errorf("bounding entity %d has dimension %d, want %d", d, m.dims[d], dim-1)
		}
		if slices.Contains(down[:i], d) {
			return 0, fmt.Errorf("duplicate bounding entity %d", d)
		}
	}

	e := types.Entity(len(m.dims))
	m.dims = append(m.dims, dim)
	m.down = append(m.down, slices.Clone(down))
	m.up = append(m.up, nil)
	m.byDim[dim] = append(m.byDim[dim], e)
	for _, d := range down {
		m.up[d] = append(m.up[d], e)
	}

	return e, nil
}

// MustAddEntity is like AddEntity but panics on error. Intended for fixtures.
func (m *Memory) MustAddEntity(dim int, down ...types.Entity) types.Entity {
	e, err := m.AddEntity(dim, down...)
	if err != nil {
		panic(err)
	}

	return e
}

// AddRemote records that partition part holds a copy of e under handle remote.
//
// A second copy on the same partition replaces the first. Copies are kept in
// ascending partition order.
func (m *Memory) AddRemote(e types.Entity, part types.PartID, remote types.Entity) error {
	if !m.valid(e) {
		return fmt.Errorf("unknown entity %d", e)
	}

	copies := m.remotes[e]
	idx, found := slices.BinarySearchFunc(copies, part, func(c types.Copy, p types.PartID) int {
		return int(c.Part) - int(p)
	})
	if found {
		copies[idx].Remote = remote
		return nil
	}
	m.remotes[e] = slices.Insert(copies, idx, types.Copy{Part: part, Remote: remote})

	return nil
}

// Dimension returns the region dimension.
func (m *Memory) Dimension() int {
	return m.dim
}

// EntityDimension returns the dimension of e, or -1 for an unknown handle.
func (m *Memory) EntityDimension(e types.Entity) int {
	if !m.valid(e) {
		return -1
	}

	return m.dims[e]
}

// Entities returns all entities of dimension dim in creation order.
func (m *Memory) Entities(dim int) []types.Entity {
	if dim < 0 || dim > m.dim {
		return nil
	}

	return slices.Clone(m.byDim[dim])
}

// Count returns the number of entities of dimension dim.
func (m *Memory) Count(dim int) int {
	if dim < 0 || dim > m.dim {
		return 0
	}

	return len(m.byDim[dim])
}

// Vertices returns all vertices in creation order.
func (m *Memory) Vertices() []types.Entity {
	return m.Entities(0)
}

// Adjacent returns the dim-dimensional entities adjacent to e, ascending.
func (m *Memory) Adjacent(e types.Entity, dim int) []types.Entity {
	if !m.valid(e) {
		return nil
	}

	switch own := m.dims[e]; {
	case dim == own:
		return []types.Entity{e}
	case dim < own:
		return m.Downward(e, dim)
	default:
		return m.closure(e, own, dim, m.up)
	}
}

// Downward returns the dim-dimensional entities bounding e, ascending.
func (m *Memory) Downward(e types.Entity, dim int) []types.Entity {
	if !m.valid(e) || dim < 0 {
		return nil
	}

	own := m.dims[e]
	switch {
	case dim == own:
		return []types.Entity{e}
	case dim > own:
		return nil
	default:
		return m.closure(e, own, dim, m.down)
	}
}

// Up returns the entities one dimension higher that e bounds, ascending.
func (m *Memory) Up(e types.Entity) []types.Entity {
	if !m.valid(e) {
		return nil
	}

	return slices.Clone(m.up[e])
}

// Remotes returns the remote copies of e in ascending partition order.
func (m *Memory) Remotes(e types.Entity) []types.Copy {
	return slices.Clone(m.remotes[e])
}

// closure walks one adjacency level at a time from dimension from to dimension to.
func (m *Memory) closure(e types.Entity, from, to int, step [][]types.Entity) []types.Entity {
	frontier := []types.Entity{e}
	levels := to - from
	if levels < 0 {
		levels = -levels
	}

	for range levels {
		seen := make(map[types.Entity]struct{})
		next := make([]types.Entity, 0, len(frontier)*2)
		for _, f := range frontier {
			for _, n := range step[f] {
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				next = append(next, n)
			}
		}
		frontier = next
	}
	slices.Sort(frontier)

	return frontier
}

func (m *Memory) valid(e types.Entity) bool {
	return int(e) < len(m.dims)
}
