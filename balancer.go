package meshbal

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/meshbal/internal/hooks"
	"github.com/arloliu/meshbal/internal/kvutil"
	"github.com/arloliu/meshbal/internal/logging"
	"github.com/arloliu/meshbal/internal/metrics"
	"github.com/arloliu/meshbal/internal/publish"
	"github.com/arloliu/meshbal/plan"
	"github.com/arloliu/meshbal/strategy"
)

// Selector builds one migration plan.
//
// strategy.VertexSelector is the implementation used by Balancer.
type Selector interface {
	Run(ctx context.Context, targets *Targets) (*plan.Plan, RunStats, error)
}

var _ Selector = (*strategy.VertexSelector)(nil)

// Balancer plans migrations for one partition of a distributed mesh.
//
// Every Balance call builds a fresh selector, so a Balancer can be reused
// across balancing passes. When configured with WithJetStream, the plan of
// each pass is published to NATS KV for the execution stage.
type Balancer struct {
	cfg     Config
	self    PartID
	mesh    Mesh
	weights WeightTag

	hooks     *Hooks
	metrics   MetricsCollector
	logger    Logger
	distances Distances
	js        jetstream.JetStream

	mu        sync.Mutex
	publisher *publish.Publisher
}

// NewBalancer creates a balancer for partition self.
//
// Parameters:
//   - cfg: Configuration; missing values are filled with defaults (modified in place)
//   - self: Id of the partition that owns m
//   - m: The partition's local mesh
//   - w: Region weights
//   - opts: Optional configuration (hooks, metrics, logger, distances, JetStream)
//
// Returns:
//   - *Balancer: Initialized balancer
//   - error: Validation error if configuration or inputs are invalid
//
// Example:
//
//	cfg := meshbal.DefaultConfig()
//	b, err := meshbal.NewBalancer(&cfg, local.ID, local.Mesh, local.Weights,
//	    meshbal.WithLogger(logger))
//	p, stats, err := b.Balance(ctx, seq, targets)
func NewBalancer(cfg *Config, self PartID, m Mesh, w WeightTag, opts ...Option) (*Balancer, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if m == nil {
		return nil, ErrMeshRequired
	}
	if w == nil {
		return nil, ErrWeightTagRequired
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &balancerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	if sl, ok := loggerInstance.(*logging.SlogLogger); ok {
		loggerInstance = sl.With("partition", self)
	}

	hooksInstance := options.hooks
	if hooksInstance == nil {
		nopHooks := hooks.NewNop()
		hooksInstance = &nopHooks
	}

	b := &Balancer{
		cfg:       *cfg,
		self:      self,
		mesh:      m,
		weights:   w,
		hooks:     hooksInstance,
		metrics:   metricsCollector,
		logger:    loggerInstance,
		distances: options.distances,
		js:        options.js,
	}
	b.cfg.CavityCaps = slices.Clone(cfg.CavityCaps)

	return b, nil
}

// Self returns the id of the partition this balancer plans for.
func (b *Balancer) Self() PartID {
	return b.self
}

// NewSelector builds an Idle selector for run seq with the balancer's configuration.
func (b *Balancer) NewSelector(seq int64) (*strategy.VertexSelector, error) {
	opts := []strategy.VertexSelectorOption{
		strategy.WithLogger(b.logger),
		strategy.WithMetrics(b.metrics),
		strategy.WithHooks(b.hooks),
		strategy.WithCavityCaps(b.cfg.CavityCaps...),
		strategy.WithDefaultWeight(b.cfg.DefaultWeight),
		strategy.WithMaxDistance(b.cfg.MaxDistance),
		strategy.WithSequence(seq),
	}
	if b.distances != nil {
		opts = append(opts, strategy.WithDistances(b.distances))
	}

	return strategy.NewVertexSelector(b.mesh, b.weights, opts...)
}

// Balance runs one balancing pass and publishes its plan when JetStream is configured.
//
// Parameters:
//   - ctx: Context for hooks and KV operations
//   - seq: Run sequence number; published plans must use increasing values
//   - targets: Desired incoming weight per destination partition
//
// Returns:
//   - *plan.Plan: The plan; nil when selection fails
//   - RunStats: Statistics of the run
//   - error: A selection error, or a publish error. On a publish error the
//     plan is still returned.
func (b *Balancer) Balance(ctx context.Context, seq int64, targets *Targets) (*plan.Plan, RunStats, error) {
	sel, err := b.NewSelector(seq)
	if err != nil {
		return nil, RunStats{Sequence: seq}, err
	}

	p, stats, err := sel.Run(ctx, targets)
	if err != nil {
		return nil, stats, fmt.Errorf("partition %d: %w", b.self, err)
	}

	if b.js == nil {
		return p, stats, nil
	}

	if _, err := b.publish(ctx, seq, p, stats); err != nil {
		if kvutil.IsConnectivityError(err) {
			b.logger.Warn("NATS unreachable, plan not published", "sequence", seq, "error", err)
		} else {
			b.logger.Error("failed to publish plan", "sequence", seq, "error", err)
		}

		return p, stats, err
	}

	return p, stats, nil
}

// LoadPlan reads the latest published plan of partition source.
//
// Returns:
//   - PlanRecord: The stored record
//   - error: ErrJetStreamRequired without WithJetStream, or a KV error
func (b *Balancer) LoadPlan(ctx context.Context, source PartID) (PlanRecord, error) {
	pub, err := b.ensurePublisher(ctx)
	if err != nil {
		return PlanRecord{}, err
	}

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.OperationTimeout)
	defer cancel()

	return pub.Load(opCtx, source)
}

// CleanupPlans deletes the published plans of partitions not listed in keep.
//
// Call it after a partition is retired so its last plan is not picked up by
// the execution stage. A nil keep deletes every plan under the key prefix.
//
// Returns:
//   - int: Number of plan records deleted
//   - error: ErrJetStreamRequired without WithJetStream, or a KV error
func (b *Balancer) CleanupPlans(ctx context.Context, keep []PartID) (int, error) {
	pub, err := b.ensurePublisher(ctx)
	if err != nil {
		return 0, err
	}

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.OperationTimeout)
	defer cancel()

	return pub.Cleanup(opCtx, keep)
}

func (b *Balancer) publish(ctx context.Context, seq int64, p *plan.Plan, stats RunStats) (PlanRecord, error) {
	pub, err := b.ensurePublisher(ctx)
	if err != nil {
		return PlanRecord{}, err
	}

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.OperationTimeout)
	defer cancel()

	return pub.Publish(opCtx, b.self, seq, p, stats)
}

// ensurePublisher creates or opens the plan bucket on first use.
func (b *Balancer) ensurePublisher(ctx context.Context) (*publish.Publisher, error) {
	if b.js == nil {
		return nil, ErrJetStreamRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publisher != nil {
		return b.publisher, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.OperationTimeout)
	defer cancel()

	kv, err := kvutil.EnsureBucket(opCtx, b.js, kvutil.BucketConfig{
		Bucket:      b.cfg.PlanBucket,
		Description: "meshbal migration plans",
		TTL:         b.cfg.PlanTTL,
	}, b.cfg.KVRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to create/open KV bucket %s: %w", b.cfg.PlanBucket, err)
	}

	b.publisher = publish.NewPublisher(kv, b.cfg.PlanKeyPrefix, b.logger, b.metrics)

	return b.publisher, nil
}

// BalanceAll runs Balance for every balancer concurrently.
//
// All balancers share seq and targets. The first failure cancels the context
// passed to the remaining runs and is returned.
//
// Parameters:
//   - ctx: Parent context
//   - balancers: One balancer per partition; partition ids must be unique
//   - seq: Run sequence number
//   - targets: Desired incoming weight per destination partition
//
// Returns:
//   - map[PartID]*plan.Plan: Plans keyed by source partition
//   - error: ErrInvalidConfig for duplicate partitions, or the first Balance error
//
// Example:
//
//	plans, err := meshbal.BalanceAll(ctx, balancers, seq, targets)
//	for part, p := range plans {
//	    fmt.Println(part, p.Len())
//	}
func BalanceAll(ctx context.Context, balancers []*Balancer, seq int64, targets *Targets) (map[PartID]*plan.Plan, error) {
	seen := make(map[PartID]struct{}, len(balancers))
	for _, b := range balancers {
		if b == nil {
			return nil, fmt.Errorf("%w: nil balancer", ErrInvalidConfig)
		}
		if _, dup := seen[b.self]; dup {
			return nil, fmt.Errorf("%w: duplicate partition %d", ErrInvalidConfig, b.self)
		}
		seen[b.self] = struct{}{}
	}

	var mu sync.Mutex
	plans := make(map[PartID]*plan.Plan, len(balancers))

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range balancers {
		g.Go(func() error {
			p, _, err := b.Balance(gctx, seq, targets)
			if err != nil {
				return err
			}

			mu.Lock()
			plans[b.self] = p
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return plans, nil
}
