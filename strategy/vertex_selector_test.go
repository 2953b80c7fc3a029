package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/meshbal/internal/logging"
	"github.com/arloliu/meshbal/plan"
	"github.com/arloliu/meshbal/types"
)

const outside types.Entity = 999

func newSelector(t *testing.T, f *fakeMesh, opts ...VertexSelectorOption) *VertexSelector {
	t.Helper()

	opts = append([]VertexSelectorOption{
		WithDistances(f.labels(t)),
		WithLogger(logging.NewTest(t)),
	}, opts...)
	sel, err := NewVertexSelector(f, f.weights, opts...)
	require.NoError(t, err)

	return sel
}

func requireDestination(t *testing.T, p *plan.Plan, dest types.PartID, regions ...types.Entity) {
	t.Helper()

	for _, r := range regions {
		d, ok := p.Destination(r)
		require.True(t, ok, "region %d not planned", r)
		require.Equal(t, dest, d, "region %d", r)
	}
}

func TestNewVertexSelector_Validation(t *testing.T) {
	f := newFakeMesh()

	_, err := NewVertexSelector(nil, f.weights)
	require.ErrorIs(t, err, types.ErrMeshRequired)

	_, err = NewVertexSelector(f, nil)
	require.ErrorIs(t, err, types.ErrWeightTagRequired)

	for name, caps := range map[string][]int{
		"empty":          {},
		"non-positive":   {0, 2},
		"not increasing": {2, 2, 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewVertexSelector(f, f.weights, WithCavityCaps(caps...))
			require.ErrorIs(t, err, ErrInvalidSchedule)
			require.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}

	_, err = NewVertexSelector(f, f.weights, WithDefaultWeight(-1))
	require.ErrorIs(t, err, types.ErrInvalidWeight)

	sel, err := NewVertexSelector(f, f.weights)
	require.NoError(t, err)
	require.Equal(t, types.SelectorIdle, sel.State())
}

// A 3-region cavity tied between two partitions with two shared sides each.
func TestVertexSelector_TieBreakLowestID(t *testing.T) {
	cases := []struct {
		name string
		a, b types.PartID
		want types.PartID
	}{
		{name: "first listed is lower", a: 1, b: 2, want: 1},
		{name: "second listed is lower", a: 4, b: 3, want: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeMesh().
				vertex(1, 0, 10, 11, 12).
				side(1, 20, tc.a, tc.b).
				side(1, 21, tc.b, tc.a).
				face(30, 10, outside).
				weigh(t, 1, 10, 11, 12)
			sel := newSelector(t, f)
			targets := mustTargets(t, map[types.PartID]float64{tc.a: 5, tc.b: 5})

			p := plan.New()
			rs, err := sel.Select(context.Background(), targets, p, 0, 2)
			require.NoError(t, err)
			require.Equal(t, 1, rs.Deferred, "cavity of 3 exceeds cap 2")
			require.Equal(t, 0, p.Len())

			rs, err = sel.Select(context.Background(), targets, p, 0, 4)
			require.NoError(t, err)
			require.Equal(t, 1, rs.Assigned)
			require.InDelta(t, 3, rs.Weight, 1e-12)
			requireDestination(t, p, tc.want, 10, 11, 12)
		})
	}
}

// A 5-region cavity whose only candidate is already at target stays unresolved.
func TestVertexSelector_DeferredUntilConditionsChange(t *testing.T) {
	f := newFakeMesh().
		vertex(1, 0, 10).
		side(1, 20, 7).
		face(30, 10, outside).
		vertex(2, 1, 11, 12, 13, 14, 15).
		side(2, 21, 7).
		face(31, 11, outside).
		weigh(t, 1, 10, 11, 12, 13, 14, 15)
	sel := newSelector(t, f)
	targets := mustTargets(t, map[types.PartID]float64{7: 1, 8: 10})

	p, stats, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, stats.Rounds, 6)
	require.Equal(t, 1, p.Len())
	requireDestination(t, p, 7, 10)

	for i, rs := range stats.Rounds {
		require.Equal(t, 1, rs.Deferred, "round %d", i)
		require.Equal(t, 0, rs.Forced, "round %d", i)
	}
	require.Equal(t, 1, stats.Rounds[0].Assigned)
	require.Equal(t, 1, stats.Rounds[1].Skipped, "vertex 1 has nothing left")

	// more room on partition 7 and a cap of 6 admit the cavity
	more := mustTargets(t, map[types.PartID]float64{7: 10, 8: 10})
	rs, err := sel.Select(context.Background(), more, p, stats.TotalWeight, 6)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Assigned)
	require.InDelta(t, 5, rs.Weight, 1e-12)
	requireDestination(t, p, 7, 11, 12, 13, 14, 15)
	require.InDelta(t, 6, sel.Sending()[7], 1e-12)
}

// A disconnected cavity is forced to its first candidate even over target.
func TestVertexSelector_ForcedDisconnectedCavity(t *testing.T) {
	f := newFakeMesh().
		vertex(1, 0, 12).
		side(1, 20, 4).
		face(33, 12, outside).
		vertex(2, 0, 10, 11).
		side(2, 21, 4).
		face(30, 10, 11).
		face(31, 10).
		face(32, 11).
		weigh(t, 3, 12).
		weigh(t, 1, 10, 11)

	var forced []types.ForcedMigration
	sel := newSelector(t, f, WithSequence(9), WithHooks(&types.Hooks{
		OnForcedMigration: func(_ context.Context, fm types.ForcedMigration) error {
			forced = append(forced, fm)
			return errors.New("ignored")
		},
	}))
	targets := mustTargets(t, map[types.PartID]float64{4: 3, 5: 100})

	p, stats, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)

	requireDestination(t, p, 4, 10, 11, 12)
	require.Equal(t, 1, stats.Rounds[0].Assigned)
	require.Equal(t, 1, stats.Rounds[0].Forced)
	require.Equal(t, 1, stats.Forced)
	require.InDelta(t, 5, stats.Sending[4], 1e-12)
	require.Greater(t, stats.Sending[4], targets.Get(4))

	require.Equal(t, []types.ForcedMigration{{
		Sequence: 9,
		Round:    0,
		Vertex:   2,
		Dest:     4,
		Cavity:   []types.Entity{10, 11},
		Weight:   2,
	}}, forced)
}

// Nothing is eligible: the plan stays empty and all rounds still run.
func TestVertexSelector_NothingEligible(t *testing.T) {
	f := newFakeMesh().
		vertex(1, 0, 10).
		side(1, 20, 2).
		face(30, 10, outside).
		vertex(2, 0, 11).
		side(2, 21, 3).
		face(31, 11, outside).
		weigh(t, 1, 10, 11)

	rounds := 0
	sel := newSelector(t, f, WithHooks(&types.Hooks{
		OnRoundComplete: func(context.Context, types.RoundStats) error {
			rounds++
			return nil
		},
	}))
	targets := mustTargets(t, map[types.PartID]float64{2: 0, 3: 0, 5: 4})

	p, stats, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Equal(t, 0, p.Len())
	require.Len(t, stats.Rounds, 6)
	require.Equal(t, 6, rounds)
	require.Zero(t, stats.TotalWeight)
	require.Empty(t, stats.Sending)
	for _, rs := range stats.Rounds {
		require.Equal(t, 2, rs.Deferred)
	}
	require.Equal(t, types.SelectorDone, sel.State())
}

// A vertex whose regions were all taken by an earlier vertex adds nothing.
func TestVertexSelector_EmptyCavityNotDoubleCounted(t *testing.T) {
	f := newFakeMesh().
		vertex(1, 0, 10).
		side(1, 20, 2).
		vertex(2, 1, 10).
		side(2, 21, 2).
		face(30, 10, outside).
		weigh(t, 4, 10)
	sel := newSelector(t, f)
	targets := mustTargets(t, map[types.PartID]float64{2: 10})

	p, stats, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	require.InDelta(t, 4, stats.TotalWeight, 1e-12)
	require.InDelta(t, 4, stats.Sending[2], 1e-12)
	require.Equal(t, 1, stats.Rounds[0].Skipped)
	require.InDelta(t, 0, stats.Rounds[1].Weight, 1e-12)
}

func TestVertexSelector_EarlyExitStrictlyAboveTotal(t *testing.T) {
	f := newFakeMesh()
	for i := range types.Entity(3) {
		f.vertex(i+1, 0, 10+i).side(i+1, 20+i, 2).face(30+i, 10+i, outside)
		f.weigh(t, 1, 10+i)
	}
	sel := newSelector(t, f)
	targets := mustTargets(t, map[types.PartID]float64{2: 1})

	p, stats, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)

	// after the first move the total equals the target, which does not stop the round
	require.Equal(t, 1, p.Len())
	require.Equal(t, 1, stats.Rounds[0].Assigned)
	require.Equal(t, 2, stats.Rounds[0].Deferred)

	targets = mustTargets(t, map[types.PartID]float64{2: 1, 3: 0.5})
	sel = newSelector(t, f)
	p, stats, err = sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	require.Equal(t, 2, stats.Rounds[0].Deferred)

	// a second candidate keeps accepting until the total is exceeded
	f2 := newFakeMesh()
	for i := range types.Entity(3) {
		f2.vertex(i+1, 0, 10+i).side(i+1, 20+i, types.PartID(2+i)).face(30+i, 10+i, outside) //nolint:gosec // tiny
		f2.weigh(t, 1, 10+i)
	}
	sel = newSelector(t, f2)
	targets = mustTargets(t, map[types.PartID]float64{2: 1, 3: 1, 4: 1})
	p, stats, err = sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())
	require.False(t, stats.Rounds[0].EarlyExit)

	targets = mustTargets(t, map[types.PartID]float64{2: 1, 3: 0.5, 4: 0.25})
	sel = newSelector(t, f2)
	p, stats, err = sel.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Equal(t, 2, p.Len(), "1 + 1 > 1.75 stops before the third vertex")
	require.True(t, stats.Rounds[0].EarlyExit)
	require.True(t, stats.Rounds[5].EarlyExit)
	require.Equal(t, 0, stats.Rounds[5].Visited)
}

func TestVertexSelector_FatalErrors(t *testing.T) {
	t.Run("disconnected cavity without remote sides is deferred", func(t *testing.T) {
		f := newFakeMesh().
			vertex(1, 0, 10).
			face(30, 10).
			weigh(t, 1, 10)
		sel := newSelector(t, f)

		p, stats, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 1}))
		require.NoError(t, err)
		require.Equal(t, 0, p.Len())
		require.Len(t, stats.Rounds, len(DefaultCavityCaps))
		for _, r := range stats.Rounds {
			require.Equal(t, 1, r.Deferred)
			require.Zero(t, r.Forced)
		}
		require.Equal(t, types.SelectorDone, sel.State())
	})

	t.Run("connected cavity without candidates is deferred", func(t *testing.T) {
		f := newFakeMesh().
			vertex(1, 0, 10).
			face(30, 10, outside).
			weigh(t, 1, 10)
		sel := newSelector(t, f)

		p, stats, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 1}))
		require.NoError(t, err)
		require.Equal(t, 0, p.Len())
		require.Equal(t, 1, stats.Rounds[0].Deferred)
	})

	t.Run("vertex without regions", func(t *testing.T) {
		f := newFakeMesh().vertex(1, 0).side(1, 20, 2)
		sel := newSelector(t, f)

		_, _, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 1}))
		require.ErrorIs(t, err, types.ErrNoIncidentRegions)
	})

	t.Run("missing weight", func(t *testing.T) {
		f := newFakeMesh().
			vertex(1, 0, 10).
			side(1, 20, 2).
			face(30, 10, outside)
		sel := newSelector(t, f)

		_, _, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 1}))
		require.ErrorIs(t, err, types.ErrMissingWeight)

		sel = newSelector(t, f, WithDefaultWeight(2.5))
		p, stats, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 1}))
		require.NoError(t, err)
		require.Equal(t, 1, p.Len())
		require.InDelta(t, 2.5, stats.TotalWeight, 1e-12)
	})

	t.Run("nil targets", func(t *testing.T) {
		sel := newSelector(t, newFakeMesh())

		_, _, err := sel.Run(context.Background(), nil)
		require.ErrorIs(t, err, types.ErrInvalidTarget)
		require.Equal(t, types.SelectorIdle, sel.State())
	})
}

func TestVertexSelector_RunOnce(t *testing.T) {
	f := newFakeMesh().vertex(1, 0, 10).side(1, 20, 2).face(30, 10, outside).weigh(t, 1, 10)

	var states []types.SelectorState
	sel := newSelector(t, f, WithHooks(&types.Hooks{
		OnStateChanged: func(_ context.Context, _, to types.SelectorState) error {
			states = append(states, to)
			return nil
		},
	}))
	ch, unsubscribe := sel.Subscribe()
	defer unsubscribe()

	targets := mustTargets(t, map[types.PartID]float64{2: 1})
	_, _, err := sel.Run(context.Background(), targets)
	require.NoError(t, err)

	_, _, err = sel.Run(context.Background(), targets)
	require.ErrorIs(t, err, types.ErrSelectorNotIdle)

	require.Equal(t, []types.SelectorState{types.SelectorRunning, types.SelectorDone}, states)
	require.Equal(t, types.SelectorIdle, <-ch)
	require.Equal(t, types.SelectorRunning, <-ch)
	require.Equal(t, types.SelectorDone, <-ch)

	_, _, ok := sel.Progress()
	require.False(t, ok)
}

func TestVertexSelector_CustomSchedule(t *testing.T) {
	f := newFakeMesh().
		vertex(1, 0, 10, 11, 12).
		side(1, 20, 2).
		face(30, 10, outside).
		weigh(t, 1, 10, 11, 12)
	sel := newSelector(t, f, WithCavityCaps(1, 3))

	p, stats, err := sel.Run(context.Background(), mustTargets(t, map[types.PartID]float64{2: 5}))
	require.NoError(t, err)
	require.Len(t, stats.Rounds, 2)
	require.Equal(t, 1, stats.Rounds[0].MaxCavity)
	require.Equal(t, 1, stats.Rounds[0].Deferred)
	require.Equal(t, 1, stats.Rounds[1].Assigned)
	require.Equal(t, 3, p.Len())
}
