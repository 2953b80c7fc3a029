package cavity

import (
	"maps"
	"slices"

	"github.com/arloliu/meshbal/types"
)

// Disconnected reports whether the cavity would be cut off from the unplanned
// mesh once its regions leave.
//
// Faces shared by two cavity regions are interior and ignored. The cavity is
// connected if any other face bounds exactly two regions, neither of them
// planned. The answer does not depend on face scan order.
func (r *Resolver) Disconnected(cavity []types.Entity, plan types.PlanView) bool {
	faces := make(map[types.Entity]int)
	for _, region := range cavity {
		for _, f := range r.mesh.Downward(region, r.dim-1) {
			faces[f]++
		}
	}

	for _, f := range slices.Sorted(maps.Keys(faces)) {
		if faces[f] == 2 {
			continue
		}
		up := r.mesh.Up(f)
		if len(up) == 2 && !plan.Has(up[0]) && !plan.Has(up[1]) {
			return false
		}
	}

	return true
}
