// Package mesh provides an in-memory implementation of types.Mesh.
//
// Memory stores entities of every dimension with their one-level downward
// adjacency and derives upward adjacency and closures on demand. Remote copies
// are recorded explicitly, which lets a single process hold the local views of
// several partitions of one global mesh.
//
// NewQuadGrid builds such a set of local views for a structured 2-D quad mesh
// split among partitions by an ownership function:
//
//	grid, err := mesh.NewQuadGrid(8, 4, mesh.Stripes(8, 2))
//	local := grid.Part(0)
//	sel, err := strategy.NewVertexSelector(local.Mesh, local.Weights)
package mesh
