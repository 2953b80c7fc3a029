package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/meshbal/types"
)

func TestNewPrometheus_Defaults(t *testing.T) {
	p := NewPrometheus(nil, "")

	require.Equal(t, prometheus.DefaultRegisterer, p.reg)
	require.Equal(t, "meshbal", p.namespace)
}

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestPrometheusCollector_RecordRound(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordRound(2, 3.5, 2, 1, 4, 0.01)
	p.RecordRound(2, 1.5, 1, 0, 0, 0.01)
	p.RecordRound(4, 0, 0, 0, 7, 0.01)

	require.InDelta(t, 2, testutil.ToFloat64(p.rounds.WithLabelValues("2")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(p.rounds.WithLabelValues("4")), 1e-9)
	require.InDelta(t, 5, testutil.ToFloat64(p.roundWeight.WithLabelValues("2")), 1e-9)
	require.InDelta(t, 3, testutil.ToFloat64(p.cavities.WithLabelValues("assigned")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(p.cavities.WithLabelValues("forced")), 1e-9)
	require.InDelta(t, 7, testutil.ToFloat64(p.deferred.WithLabelValues("4")), 1e-9)
}

func TestPrometheusCollector_RecordRunAndPublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordRun(0.5, 12, 9)
	p.RecordPlanPublished(9, 4)
	p.RecordKVOperationDuration("put", 0.002)
	p.RecordStateTransition(types.SelectorIdle, types.SelectorRunning, 0.1)

	require.InDelta(t, 1, testutil.ToFloat64(p.runs), 1e-9)
	require.InDelta(t, 12, testutil.ToFloat64(p.runWeight), 1e-9)
	require.InDelta(t, 9, testutil.ToFloat64(p.planRegions), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(p.plansPublished), 1e-9)
	require.InDelta(t, 4, testutil.ToFloat64(p.planVersion), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(p.stateTransitions.WithLabelValues("Idle", "Running")), 1e-9)

	count, err := testutil.GatherAndCount(reg, "test_publisher_kv_operation_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
