// Package meshbal plans load-balancing migrations for partitioned unstructured meshes.
//
// Each partition of a distributed mesh owns a set of top-dimensional regions
// (triangles, quads, tetrahedra). Meshbal decides, for one partition at a time,
// which regions near the partition boundary should move to which neighboring
// partition so that every neighbor receives roughly its target weight.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/arloliu/meshbal"
//
//	cfg := meshbal.DefaultConfig()
//	b, err := meshbal.NewBalancer(&cfg, self, localMesh, weights)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	targets, _ := meshbal.NewTargets(map[meshbal.PartID]float64{1: 4, 2: 2.5})
//	p, stats, err := b.Balance(ctx, seq, targets)
//
// # How Selection Works
//
// Boundary vertices are visited in order of their distance from the partition
// boundary. The cavity of a vertex is the set of its unplanned incident regions.
// A cavity goes to the neighbor that holds the most copies of the vertex's sides,
// as long as the cavity is small enough for the current round and the neighbor
// still wants weight. Cavities that would become disconnected from their owner
// are moved regardless of targets.
//
// A run executes six rounds with growing cavity caps:
//
//	2 → 4 → 6 → 8 → 10 → 12
//
// and stops early once the committed weight exceeds the total target.
//
// # Plan Hand-off
//
// With WithJetStream, every plan is written to a NATS KV bucket under
// "<PlanKeyPrefix>.<partition>" together with its run sequence number, so the
// stage that actually moves regions can read it back:
//
//	b, _ := meshbal.NewBalancer(&cfg, self, m, w, meshbal.WithJetStream(js))
//	_, _, err := b.Balance(ctx, seq, targets)
//	rec, err := b.LoadPlan(ctx, self)
//
// When a partition is retired, CleanupPlans drops its last plan so it is not
// executed again.
//
// # Advanced Usage
//
// Running every partition of an in-process mesh at once:
//
//	grid, _ := mesh.NewQuadGrid(64, 64, mesh.Stripes(64, 4))
//	var balancers []*meshbal.Balancer
//	for _, id := range grid.PartIDs() {
//	    local := grid.Part(id)
//	    cfg := meshbal.DefaultConfig()
//	    b, _ := meshbal.NewBalancer(&cfg, id, local.Mesh, local.Weights)
//	    balancers = append(balancers, b)
//	}
//	plans, err := meshbal.BalanceAll(ctx, balancers, seq, targets)
//
// See the examples/ directory for a complete working example.
package meshbal
