package cavity

import (
	"fmt"

	"github.com/arloliu/meshbal/types"
)

// Resolver answers cavity queries against one partition's local mesh.
//
// Resolver holds no mutable state; it is safe for concurrent use as long as
// the mesh is.
type Resolver struct {
	mesh types.Mesh
	dim  int
}

// NewResolver creates a resolver for m.
//
// Returns:
//   - *Resolver: Resolver bound to m
//   - error: types.ErrMeshRequired for a nil mesh, types.ErrUnsupportedDimension
//     for meshes whose regions have dimension below 2
func NewResolver(m types.Mesh) (*Resolver, error) {
	if m == nil {
		return nil, types.ErrMeshRequired
	}
	dim := m.Dimension()
	if dim < 2 {
		return nil, fmt.Errorf("%w: cavity sides need dimension >= 2, got %d", types.ErrUnsupportedDimension, dim)
	}

	return &Resolver{mesh: m, dim: dim}, nil
}

// Dimension returns the region dimension of the underlying mesh.
func (r *Resolver) Dimension() int {
	return r.dim
}

// Cavity returns the regions incident to v that are not yet planned.
//
// Regions keep the mesh's adjacency order. An empty, nil-error result means
// every incident region is already planned.
//
// Returns:
//   - []types.Entity: Unplanned incident regions
//   - error: types.ErrNoIncidentRegions when v touches no region at all
func (r *Resolver) Cavity(v types.Entity, plan types.PlanView) ([]types.Entity, error) {
	regions := r.mesh.Adjacent(v, r.dim)
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: vertex %d", types.ErrNoIncidentRegions, v)
	}

	cavity := make([]types.Entity, 0, len(regions))
	for _, region := range regions {
		if !plan.Has(region) {
			cavity = append(cavity, region)
		}
	}

	return cavity, nil
}
