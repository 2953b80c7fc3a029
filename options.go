package meshbal

import "github.com/nats-io/nats.go/jetstream"

// Option configures a Balancer with optional dependencies.
type Option func(*balancerOptions)

// balancerOptions holds optional Balancer configuration.
type balancerOptions struct {
	hooks     *Hooks
	metrics   MetricsCollector
	logger    Logger
	distances Distances
	js        jetstream.JetStream
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewBalancer
//
// Example:
//
//	hooks := &meshbal.Hooks{
//	    OnForcedMigration: func(ctx context.Context, fm meshbal.ForcedMigration) error {
//	        log.Printf("vertex %d forced to %d", fm.Vertex, fm.Dest)
//	        return nil
//	    },
//	}
//	b, _ := meshbal.NewBalancer(&cfg, self, m, w, meshbal.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *balancerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewBalancer
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *balancerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewBalancer
func WithLogger(logger Logger) Option {
	return func(o *balancerOptions) {
		o.logger = logger
	}
}

// WithDistances supplies precomputed boundary distances.
//
// Without it every Balance call measures distances on the mesh, honoring
// Config.MaxDistance.
func WithDistances(d Distances) Option {
	return func(o *balancerOptions) {
		o.distances = d
	}
}

// WithJetStream enables plan publishing to the Config.PlanBucket KV bucket.
//
// Parameters:
//   - js: JetStream handle used to create or open the bucket
//
// Returns:
//   - Option: Functional option for NewBalancer
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	b, _ := meshbal.NewBalancer(&cfg, self, m, w, meshbal.WithJetStream(js))
func WithJetStream(js jetstream.JetStream) Option {
	return func(o *balancerOptions) {
		o.js = js
	}
}
