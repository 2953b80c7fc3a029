package metrics

import (
	"strconv"
	"sync"

	"github.com/arloliu/meshbal/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are created and registered lazily on first use, so constructing a
// collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Selector metrics
	stateTransitions *prometheus.CounterVec
	stateDuration    *prometheus.HistogramVec
	rounds           *prometheus.CounterVec
	roundWeight      *prometheus.CounterVec
	cavities         *prometheus.CounterVec
	deferred         *prometheus.CounterVec
	roundDuration    *prometheus.HistogramVec
	runs             prometheus.Counter
	runDuration      prometheus.Histogram
	runWeight        prometheus.Gauge
	planRegions      prometheus.Gauge

	// Publisher metrics
	plansPublished     prometheus.Counter
	planVersion        prometheus.Gauge
	kvOperationLatency *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "meshbal" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "meshbal"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "state_transitions_total",
			Help:      "Total selector state transitions by source and target state.",
		}, []string{"from", "to"})

		p.stateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "state_duration_seconds",
			Help:      "Time spent in a selector state before leaving it.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms .. ~16s
		}, []string{"state"})

		p.rounds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "rounds_total",
			Help:      "Total selection rounds by cavity-size cap.",
		}, []string{"max_cavity"})

		p.roundWeight = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "committed_weight_total",
			Help:      "Total weight committed to migration plans by cavity-size cap.",
		}, []string{"max_cavity"})

		p.cavities = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "cavities_total",
			Help:      "Total cavities moved by kind (assigned, forced).",
		}, []string{"kind"})

		p.deferred = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "deferred_vertices_total",
			Help:      "Total vertices left unresolved by cavity-size cap.",
		}, []string{"max_cavity"})

		p.roundDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "round_duration_seconds",
			Help:      "Selection round latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"max_cavity"})

		p.runs = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "runs_total",
			Help:      "Total completed selection runs.",
		})

		p.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "run_duration_seconds",
			Help:      "Selection run latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
		})

		p.runWeight = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "last_run_weight",
			Help:      "Weight committed by the most recent selection run.",
		})

		p.planRegions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "selector",
			Name:      "last_plan_regions",
			Help:      "Regions in the most recent migration plan.",
		})

		p.plansPublished = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "plans_published_total",
			Help:      "Total migration plans written to the hand-off store.",
		})

		p.planVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "plan_version",
			Help:      "Version of the most recently published plan.",
		})

		p.kvOperationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "kv_operation_duration_seconds",
			Help:      "NATS KV operation latency in seconds by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.stateDuration)
		p.reg.MustRegister(p.rounds)
		p.reg.MustRegister(p.roundWeight)
		p.reg.MustRegister(p.cavities)
		p.reg.MustRegister(p.deferred)
		p.reg.MustRegister(p.roundDuration)
		p.reg.MustRegister(p.runs)
		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.runWeight)
		p.reg.MustRegister(p.planRegions)
		p.reg.MustRegister(p.plansPublished)
		p.reg.MustRegister(p.planVersion)
		p.reg.MustRegister(p.kvOperationLatency)
	})
}

// SelectorMetrics implementation

// RecordStateTransition counts the transition and observes time spent in the previous state.
func (p *PrometheusCollector) RecordStateTransition(from, to types.SelectorState, duration float64) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	p.stateDuration.WithLabelValues(from.String()).Observe(duration)
}

// RecordRound records one selection round.
func (p *PrometheusCollector) RecordRound(maxCavity int, weight float64, assigned, forced, deferred int, duration float64) {
	p.ensureRegistered()
	label := strconv.Itoa(maxCavity)
	p.rounds.WithLabelValues(label).Inc()
	p.roundWeight.WithLabelValues(label).Add(weight)
	p.cavities.WithLabelValues("assigned").Add(float64(assigned))
	p.cavities.WithLabelValues("forced").Add(float64(forced))
	p.deferred.WithLabelValues(label).Add(float64(deferred))
	p.roundDuration.WithLabelValues(label).Observe(duration)
}

// RecordRun records a complete selection run.
func (p *PrometheusCollector) RecordRun(duration float64, totalWeight float64, regions int) {
	p.ensureRegistered()
	p.runs.Inc()
	p.runDuration.Observe(duration)
	p.runWeight.Set(totalWeight)
	p.planRegions.Set(float64(regions))
}

// PublisherMetrics implementation

// RecordPlanPublished records a published plan and its version.
func (p *PrometheusCollector) RecordPlanPublished(_ /* regions */ int, version int64) {
	p.ensureRegistered()
	p.plansPublished.Inc()
	p.planVersion.Set(float64(version))
}

// RecordKVOperationDuration observes NATS KV latency for the given operation.
func (p *PrometheusCollector) RecordKVOperationDuration(operation string, duration float64) {
	p.ensureRegistered()
	p.kvOperationLatency.WithLabelValues(operation).Observe(duration)
}
