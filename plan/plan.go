package plan

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/zeebo/xxh3"

	"github.com/arloliu/meshbal/types"
)

// Plan is an insertion-ordered mapping from region to destination partition.
//
// Plan is not safe for concurrent mutation.
type Plan struct {
	members *roaring.Bitmap
	dest    map[types.Entity]types.PartID
	order   []types.Entity
}

var _ types.PlanView = (*Plan)(nil)

// New creates an empty plan.
func New() *Plan {
	return &Plan{
		members: roaring.New(),
		dest:    make(map[types.Entity]types.PartID),
	}
}

// Has reports whether region is already planned.
func (p *Plan) Has(region types.Entity) bool {
	return p.members.Contains(uint32(region))
}

// Send plans region for migration to dest.
//
// Returns:
//   - error: types.ErrAlreadyPlanned if region is already in the plan; the plan is left unchanged
func (p *Plan) Send(region types.Entity, dest types.PartID) error {
	if !p.members.CheckedAdd(uint32(region)) {
		return fmt.Errorf("%w: region %d already sent to %d", types.ErrAlreadyPlanned, region, p.dest[region])
	}
	p.dest[region] = dest
	p.order = append(p.order, region)

	return nil
}

// Destination returns the planned destination of region.
func (p *Plan) Destination(region types.Entity) (types.PartID, bool) {
	d, ok := p.dest[region]
	return d, ok
}

// Len returns the number of planned regions.
func (p *Plan) Len() int {
	return len(p.order)
}

// Regions returns the planned regions in insertion order.
func (p *Plan) Regions() []types.Entity {
	return slices.Clone(p.order)
}

// ByDestination groups planned regions by destination, each list ascending.
func (p *Plan) ByDestination() map[types.PartID][]types.Entity {
	out := make(map[types.PartID][]types.Entity)
	for _, r := range p.order {
		d := p.dest[r]
		out[d] = append(out[d], r)
	}
	for _, regions := range out {
		slices.Sort(regions)
	}

	return out
}

// Destinations returns the distinct destination partitions, ascending.
func (p *Plan) Destinations() []types.PartID {
	seen := make(map[types.PartID]struct{})
	for _, d := range p.dest {
		seen[d] = struct{}{}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Fingerprint returns a content hash of the plan independent of insertion order.
//
// Two plans with the same region-to-destination pairs have the same fingerprint.
func (p *Plan) Fingerprint() uint64 {
	h := xxh3.New()
	var buf [8]byte
	it := p.members.Iterator()
	for it.HasNext() {
		r := it.Next()
		binary.LittleEndian.PutUint32(buf[:4], r)
		binary.LittleEndian.PutUint32(buf[4:], uint32(p.dest[types.Entity(r)])) //nolint:gosec // bit pattern only
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}

// Record builds the serializable form of the plan.
//
// Parameters:
//   - source: Partition whose regions the plan moves
//   - version: Run sequence number, used as the record version
//   - totalWeight: Weight committed by the run
//
// Returns:
//   - types.PlanRecord: Record with moves grouped by destination and the plan fingerprint
func (p *Plan) Record(source types.PartID, version int64, totalWeight float64) types.PlanRecord {
	return types.PlanRecord{
		Version:     version,
		Source:      source,
		Moves:       p.ByDestination(),
		Regions:     p.Len(),
		TotalWeight: totalWeight,
		Fingerprint: p.Fingerprint(),
		CreatedAt:   time.Now(),
	}
}
