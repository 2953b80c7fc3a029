package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/meshbal/types"
)

func TestPlan_SendFirstWriteWins(t *testing.T) {
	p := New()
	require.Equal(t, 0, p.Len())
	require.False(t, p.Has(3))

	require.NoError(t, p.Send(3, 1))
	require.True(t, p.Has(3))

	err := p.Send(3, 2)
	require.ErrorIs(t, err, types.ErrAlreadyPlanned)

	d, ok := p.Destination(3)
	require.True(t, ok)
	require.Equal(t, types.PartID(1), d)
	require.Equal(t, 1, p.Len())

	_, ok = p.Destination(4)
	require.False(t, ok)
}

func TestPlan_Grouping(t *testing.T) {
	p := New()
	require.NoError(t, p.Send(9, 2))
	require.NoError(t, p.Send(1, 5))
	require.NoError(t, p.Send(4, 2))
	require.NoError(t, p.Send(7, 5))
	require.NoError(t, p.Send(2, 0))

	require.Equal(t, []types.Entity{9, 1, 4, 7, 2}, p.Regions())
	require.Equal(t, []types.PartID{0, 2, 5}, p.Destinations())

	want := map[types.PartID][]types.Entity{
		0: {2},
		2: {4, 9},
		5: {1, 7},
	}
	if diff := cmp.Diff(want, p.ByDestination()); diff != "" {
		t.Fatalf("ByDestination mismatch (-want +got):\n%s", diff)
	}

	// Regions returns a copy
	r := p.Regions()
	r[0] = 100
	require.Equal(t, types.Entity(9), p.Regions()[0])
}

func TestPlan_Fingerprint(t *testing.T) {
	a := New()
	require.NoError(t, a.Send(1, 1))
	require.NoError(t, a.Send(2, 3))

	b := New()
	require.NoError(t, b.Send(2, 3))
	require.NoError(t, b.Send(1, 1))

	require.Equal(t, a.Fingerprint(), b.Fingerprint(), "order independent")

	c := New()
	require.NoError(t, c.Send(1, 1))
	require.NoError(t, c.Send(2, 4))
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	require.Equal(t, New().Fingerprint(), New().Fingerprint())
}

func TestPlan_Record(t *testing.T) {
	p := New()
	require.NoError(t, p.Send(5, 1))
	require.NoError(t, p.Send(6, 1))

	rec := p.Record(0, 42, 2.5)
	require.Equal(t, int64(42), rec.Version)
	require.Equal(t, types.PartID(0), rec.Source)
	require.Equal(t, 2, rec.Regions)
	require.InDelta(t, 2.5, rec.TotalWeight, 1e-12)
	require.Equal(t, p.Fingerprint(), rec.Fingerprint)
	require.Equal(t, map[types.PartID][]types.Entity{1: {5, 6}}, rec.Moves)
	require.False(t, rec.CreatedAt.IsZero())
}
