package types

// Entity is a local handle to a mesh entity of any dimension.
//
// Handles are unique within one partition's local mesh; the same global entity
// has a different handle on every partition that holds a copy of it.
type Entity uint32

// PartID identifies a compute partition in the mesh distribution.
type PartID int32

// Copy describes one remote copy of a shared mesh entity.
type Copy struct {
	// Part is the partition holding the copy.
	Part PartID

	// Remote is the entity handle on the remote partition.
	Remote Entity
}

// Mesh is the capability interface the selector consumes from a partition's local mesh.
//
// Only adjacency, remote-copy and iteration queries are required. Remote-copy
// queries must reflect a globally consistent snapshot for the duration of one
// balancing pass; the selector performs no synchronization of its own.
//
// Implementations must return deterministic results for identical inputs.
type Mesh interface {
	// Dimension returns the dimension of the mesh's regions (2 or 3 in practice).
	Dimension() int

	// Vertices returns all dimension-0 entities in mesh iteration order.
	Vertices() []Entity

	// Adjacent returns the entities of dimension dim adjacent to e.
	//
	// For dim equal to the dimension of e the result is e itself, for a higher
	// dimension the upward closure and for a lower dimension the downward closure.
	Adjacent(e Entity, dim int) []Entity

	// Downward returns the dim-dimensional entities bounding e.
	Downward(e Entity, dim int) []Entity

	// Up returns the entities one dimension higher that e bounds.
	Up(e Entity) []Entity

	// Remotes returns the remote copies of e, empty for entities owned by a single partition.
	Remotes(e Entity) []Copy
}

// WeightTag provides read-only access to the scalar cost weight of a region.
type WeightTag interface {
	// Weight returns the weight attached to e and whether one is present.
	Weight(e Entity) (float64, bool)
}

// Distances provides the precomputed graph-distance label of each vertex.
//
// Distance 0 means the vertex touches a remote copy; larger values lie further
// inside the partition. Unlabeled vertices report false.
type Distances interface {
	Distance(v Entity) (int, bool)
}

// PlanView is the read side of a migration plan.
type PlanView interface {
	// Has reports whether region e already has a destination.
	Has(e Entity) bool
}
