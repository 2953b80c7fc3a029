package publish

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/meshbal/internal/logging"
	"github.com/arloliu/meshbal/internal/metrics"
	"github.com/arloliu/meshbal/plan"
	meshtest "github.com/arloliu/meshbal/testing"
	"github.com/arloliu/meshbal/types"
)

func newTestPublisher(t *testing.T) (*Publisher, jetstream.KeyValue) {
	t.Helper()

	_, nc := meshtest.StartEmbeddedNATS(t)
	kv := meshtest.CreatePlanBucket(t, nc, "plans")

	return NewPublisher(kv, "plan", logging.NewTest(t), metrics.NewNop()), kv
}

func samplePlan(t *testing.T, moves map[types.Entity]types.PartID) *plan.Plan {
	t.Helper()

	p := plan.New()
	for r, d := range moves {
		require.NoError(t, p.Send(r, d))
	}

	return p
}

func TestPublisher_PublishAndLoad(t *testing.T) {
	pub, _ := newTestPublisher(t)
	ctx := t.Context()

	p := samplePlan(t, map[types.Entity]types.PartID{4: 1, 5: 1, 9: 2})
	rec, err := pub.Publish(ctx, 0, 1, p, types.RunStats{TotalWeight: 3})
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.Version)
	require.Equal(t, 3, rec.Regions)
	require.Equal(t, p.Fingerprint(), rec.Fingerprint)

	loaded, err := pub.Load(ctx, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, loaded); diff != "" {
		t.Fatalf("loaded record mismatch (-published +loaded):\n%s", diff)
	}
	require.Equal(t, map[types.PartID][]types.Entity{1: {4, 5}, 2: {9}}, loaded.Moves)
	require.Equal(t, int64(1), pub.CurrentVersion(0))

	_, err = pub.Load(ctx, 7)
	require.ErrorIs(t, err, jetstream.ErrKeyNotFound)
}

func TestPublisher_VersionsPerSource(t *testing.T) {
	pub, _ := newTestPublisher(t)
	ctx := t.Context()
	p := samplePlan(t, map[types.Entity]types.PartID{1: 2})

	_, err := pub.Publish(ctx, 0, 5, p, types.RunStats{})
	require.NoError(t, err)

	// another partition may publish the same run sequence
	_, err = pub.Publish(ctx, 1, 5, p, types.RunStats{})
	require.NoError(t, err)

	_, err = pub.Publish(ctx, 0, 5, p, types.RunStats{})
	require.ErrorIs(t, err, types.ErrStalePlanVersion)
	_, err = pub.Publish(ctx, 0, 4, p, types.RunStats{})
	require.ErrorIs(t, err, types.ErrStalePlanVersion)

	_, err = pub.Publish(ctx, 0, 6, p, types.RunStats{})
	require.NoError(t, err)
}

func TestPublisher_DiscoverHighestVersion(t *testing.T) {
	pub, kv := newTestPublisher(t)
	ctx := t.Context()
	p := samplePlan(t, map[types.Entity]types.PartID{1: 2})

	highest, err := pub.DiscoverHighestVersion(ctx)
	require.NoError(t, err)
	require.Zero(t, highest)

	_, err = pub.Publish(ctx, 0, 3, p, types.RunStats{})
	require.NoError(t, err)
	_, err = pub.Publish(ctx, 1, 8, p, types.RunStats{})
	require.NoError(t, err)

	// foreign and malformed keys are ignored
	_, err = kv.Put(ctx, "lease.0", []byte("x"))
	require.NoError(t, err)
	_, err = kv.Put(ctx, "plan.2", []byte("not json"))
	require.NoError(t, err)

	// a restarted process picks up where the old one stopped
	restarted := NewPublisher(kv, "plan", logging.NewTest(t), metrics.NewNop())
	highest, err = restarted.DiscoverHighestVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(8), highest)
	require.Equal(t, int64(3), restarted.CurrentVersion(0))
	require.Equal(t, int64(8), restarted.CurrentVersion(1))

	_, err = restarted.Publish(ctx, 1, 8, p, types.RunStats{})
	require.ErrorIs(t, err, types.ErrStalePlanVersion)
	_, err = restarted.Publish(ctx, 0, 4, p, types.RunStats{})
	require.NoError(t, err)
}

func TestPublisher_DiscoversBeforeFirstPublish(t *testing.T) {
	pub, kv := newTestPublisher(t)
	ctx := t.Context()
	p := samplePlan(t, map[types.Entity]types.PartID{1: 2})

	_, err := pub.Publish(ctx, 0, 10, p, types.RunStats{})
	require.NoError(t, err)

	fresh := NewPublisher(kv, "plan", logging.NewTest(t), metrics.NewNop())
	_, err = fresh.Publish(ctx, 0, 9, p, types.RunStats{})
	require.ErrorIs(t, err, types.ErrStalePlanVersion)
}

func TestPublisher_Cleanup(t *testing.T) {
	pub, kv := newTestPublisher(t)
	ctx := t.Context()
	p := samplePlan(t, map[types.Entity]types.PartID{1: 2})

	for _, source := range []types.PartID{0, 1, 2} {
		_, err := pub.Publish(ctx, source, 1, p, types.RunStats{})
		require.NoError(t, err)
	}
	_, err := kv.Put(ctx, "other.1", []byte("x"))
	require.NoError(t, err)

	deleted, err := pub.Cleanup(ctx, []types.PartID{1})
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	_, err = pub.Load(ctx, 0)
	require.ErrorIs(t, err, jetstream.ErrKeyNotFound)
	_, err = pub.Load(ctx, 1)
	require.NoError(t, err)
	_, err = kv.Get(ctx, "other.1")
	require.NoError(t, err)

	deleted, err = pub.Cleanup(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Zero(t, pub.CurrentVersion(1))
}

func TestPublisher_Key(t *testing.T) {
	pub := NewPublisher(nil, "plans", logging.NewNop(), metrics.NewNop())

	require.Equal(t, "plans.3", pub.Key(3))
	require.Equal(t, "plans.-1", pub.Key(-1))

	src, ok := pub.parseKey("plans.12")
	require.True(t, ok)
	require.Equal(t, types.PartID(12), src)

	_, ok = pub.parseKey("plans.x")
	require.False(t, ok)
	_, ok = pub.parseKey("plan.1")
	require.False(t, ok)
}
