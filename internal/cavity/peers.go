package cavity

import (
	"maps"
	"slices"

	"github.com/arloliu/meshbal/types"
)

// Peer is a partition sharing sides with a vertex.
type Peer struct {
	// Part is the remote partition.
	Part types.PartID

	// Sides counts the (dim-2)-entities around the vertex that Part holds a copy of.
	Sides int
}

// Peers returns the partitions holding copies of the sides around v, ascending by Part.
func (r *Resolver) Peers(v types.Entity) []Peer {
	counts := make(map[types.PartID]int)
	for _, side := range r.mesh.Adjacent(v, r.dim-2) {
		for _, c := range r.mesh.Remotes(side) {
			counts[c.Part]++
		}
	}

	peers := make([]Peer, 0, len(counts))
	for _, p := range slices.Sorted(maps.Keys(counts)) {
		peers = append(peers, Peer{Part: p, Sides: counts[p]})
	}

	return peers
}

// Candidates returns the peers with the highest side count, ascending by id.
//
// The lowest id is the preferred destination when several tie.
func (r *Resolver) Candidates(v types.Entity) []types.PartID {
	peers := r.Peers(v)

	best := 0
	for _, p := range peers {
		best = max(best, p.Sides)
	}

	var out []types.PartID
	for _, p := range peers {
		if p.Sides == best {
			out = append(out, p.Part)
		}
	}

	return out
}
