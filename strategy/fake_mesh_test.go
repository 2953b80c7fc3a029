package strategy

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/meshbal/internal/graphdist"
	"github.com/arloliu/meshbal/types"
	"github.com/arloliu/meshbal/weight"
)

// fakeMesh is a hand-wired 3-D mesh exposing only what the selector queries.
//
// Vertices own their incident regions and sides directly, regions own their
// faces, and faces know the regions above them.
type fakeMesh struct {
	vertices []types.Entity
	regions  map[types.Entity][]types.Entity
	sides    map[types.Entity][]types.Entity
	faces    map[types.Entity][]types.Entity
	up       map[types.Entity][]types.Entity
	remotes  map[types.Entity][]types.Copy

	dist    map[types.Entity]int
	weights *weight.Tag
}

var _ types.Mesh = (*fakeMesh)(nil)

func newFakeMesh() *fakeMesh {
	return &fakeMesh{
		regions: make(map[types.Entity][]types.Entity),
		sides:   make(map[types.Entity][]types.Entity),
		faces:   make(map[types.Entity][]types.Entity),
		up:      make(map[types.Entity][]types.Entity),
		remotes: make(map[types.Entity][]types.Copy),
		dist:    make(map[types.Entity]int),
		weights: weight.NewTag(),
	}
}

// vertex adds v at boundary distance d with the given incident regions.
func (f *fakeMesh) vertex(v types.Entity, d int, regions ...types.Entity) *fakeMesh {
	f.vertices = append(f.vertices, v)
	f.dist[v] = d
	f.regions[v] = append(f.regions[v], regions...)

	return f
}

// side attaches side s to v, copied on the given partitions.
func (f *fakeMesh) side(v, s types.Entity, parts ...types.PartID) *fakeMesh {
	f.sides[v] = append(f.sides[v], s)
	for _, p := range parts {
		f.remotes[s] = append(f.remotes[s], types.Copy{Part: p, Remote: s + 1000})
	}

	return f
}

// face makes fc a face of every listed region.
func (f *fakeMesh) face(fc types.Entity, regions ...types.Entity) *fakeMesh {
	for _, r := range regions {
		f.faces[r] = append(f.faces[r], fc)
	}
	f.up[fc] = slices.Sorted(slices.Values(regions))

	return f
}

func (f *fakeMesh) weigh(t *testing.T, w float64, regions ...types.Entity) *fakeMesh {
	t.Helper()
	for _, r := range regions {
		require.NoError(t, f.weights.Set(r, w))
	}

	return f
}

func (f *fakeMesh) labels(t *testing.T) *graphdist.Labels {
	t.Helper()

	l, err := graphdist.FromMap(f.dist)
	require.NoError(t, err)

	return l
}

func (f *fakeMesh) Dimension() int { return 3 }

func (f *fakeMesh) Vertices() []types.Entity { return slices.Clone(f.vertices) }

func (f *fakeMesh) Adjacent(e types.Entity, dim int) []types.Entity {
	switch dim {
	case 3:
		return slices.Clone(f.regions[e])
	case 1:
		return slices.Clone(f.sides[e])
	case 0:
		return []types.Entity{e}
	default:
		return nil
	}
}

func (f *fakeMesh) Downward(e types.Entity, dim int) []types.Entity {
	if dim != 2 {
		return nil
	}

	return slices.Clone(f.faces[e])
}

func (f *fakeMesh) Up(e types.Entity) []types.Entity { return slices.Clone(f.up[e]) }

func (f *fakeMesh) Remotes(e types.Entity) []types.Copy { return slices.Clone(f.remotes[e]) }

func mustTargets(t *testing.T, w map[types.PartID]float64) *types.Targets {
	t.Helper()

	tg, err := types.NewTargets(w)
	require.NoError(t, err)

	return tg
}
