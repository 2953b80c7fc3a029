package strategy

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/arloliu/meshbal/internal/cavity"
	"github.com/arloliu/meshbal/internal/graphdist"
	"github.com/arloliu/meshbal/internal/hooks"
	"github.com/arloliu/meshbal/internal/lifecycle"
	"github.com/arloliu/meshbal/internal/logging"
	"github.com/arloliu/meshbal/internal/metrics"
	"github.com/arloliu/meshbal/plan"
	"github.com/arloliu/meshbal/source"
	"github.com/arloliu/meshbal/types"
	"github.com/arloliu/meshbal/weight"
)

// DefaultCavityCaps is the standard six-round cavity-size schedule.
var DefaultCavityCaps = []int{2, 4, 6, 8, 10, 12}

// VertexSelector builds a migration plan for one partition by moving cavities
// around boundary vertices to neighboring partitions.
//
// A VertexSelector runs once: construct a new one for every balancing pass.
// It is not safe for concurrent use, except for State, Progress and Subscribe.
type VertexSelector struct {
	mesh     types.Mesh
	weights  *weight.Accessor
	resolver *cavity.Resolver
	labels   types.Distances

	caps          []int
	sequence      int64
	maxDistance   int
	defaultWeight float64

	logger  types.Logger
	metrics types.SelectorMetrics
	hooks   *types.Hooks

	sm      *lifecycle.StateMachine
	sending map[types.PartID]float64
	round   int
}

// VertexSelectorOption configures a VertexSelector.
type VertexSelectorOption func(*VertexSelector)

// WithLogger sets the logger used for round diagnostics.
func WithLogger(logger types.Logger) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.SelectorMetrics) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.metrics = m
	}
}

// WithHooks sets lifecycle hooks. Nil callbacks are ignored.
func WithHooks(h *types.Hooks) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.hooks = h
	}
}

// WithDistances supplies precomputed boundary distances instead of measuring them.
func WithDistances(d types.Distances) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.labels = d
	}
}

// WithCavityCaps replaces the round schedule. Caps must be positive and strictly increasing.
func WithCavityCaps(caps ...int) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.caps = slices.Clone(caps)
	}
}

// WithDefaultWeight sets the weight used for regions without a tag. Zero makes them an error.
func WithDefaultWeight(w float64) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.defaultWeight = w
	}
}

// WithSequence sets the caller's run sequence number reported in stats and hooks.
func WithSequence(seq int64) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.sequence = seq
	}
}

// WithMaxDistance limits measured distances to d hops from the boundary. Negative means unlimited.
//
// Ignored when WithDistances is used.
func WithMaxDistance(d int) VertexSelectorOption {
	return func(s *VertexSelector) {
		s.maxDistance = d
	}
}

// NewVertexSelector creates a selector over one partition's local mesh.
//
// Boundary distances are measured here, once, unless supplied with
// WithDistances; every round then walks the same vertex order.
//
// Parameters:
//   - m: Local mesh (region dimension >= 2)
//   - w: Region weights
//   - opts: Optional configuration (WithLogger, WithMetrics, WithHooks, WithDistances,
//     WithCavityCaps, WithDefaultWeight, WithSequence, WithMaxDistance)
//
// Returns:
//   - *VertexSelector: Selector in the Idle state
//   - error: Missing mesh or weights, unsupported dimension or invalid schedule
//
// Example:
//
//	sel, err := strategy.NewVertexSelector(local.Mesh, local.Weights, strategy.WithSequence(7))
//	if err != nil { /* handle */ }
//	p, stats, err := sel.Run(ctx, targets)
func NewVertexSelector(m types.Mesh, w types.WeightTag, opts ...VertexSelectorOption) (*VertexSelector, error) {
	if m == nil {
		return nil, types.ErrMeshRequired
	}
	if w == nil {
		return nil, types.ErrWeightTagRequired
	}

	s := &VertexSelector{
		mesh:        m,
		caps:        slices.Clone(DefaultCavityCaps),
		maxDistance: -1,
		logger:      logging.NewNop(),
		metrics:     metrics.NewNop(),
		sending:     make(map[types.PartID]float64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if err := validateCaps(s.caps); err != nil {
		return nil, err
	}
	if s.defaultWeight < 0 {
		return nil, fmt.Errorf("%w: default weight %v", types.ErrInvalidWeight, s.defaultWeight)
	}

	resolver, err := cavity.NewResolver(m)
	if err != nil {
		return nil, err
	}
	s.resolver = resolver
	s.weights = weight.NewAccessor(w, s.defaultWeight)

	if s.labels == nil {
		labels, err := graphdist.Measure(m, graphdist.WithMaxDepth(s.maxDistance))
		if err != nil {
			return nil, fmt.Errorf("failed to measure boundary distance: %w", err)
		}
		s.labels = labels
		s.logger.Debug("measured boundary distance", "vertices", labels.Len(), "max_distance", labels.Max())
	}

	filled := hooks.Fill(s.hooks)
	s.hooks = &filled
	s.sm = lifecycle.NewStateMachine(s.logger, s.metrics)

	return s, nil
}

func validateCaps(caps []int) error {
	if len(caps) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSchedule)
	}
	for i, c := range caps {
		if c <= 0 {
			return fmt.Errorf("%w: cap %d is not positive", ErrInvalidSchedule, c)
		}
		if i > 0 && c <= caps[i-1] {
			return fmt.Errorf("%w: cap %d does not exceed %d", ErrInvalidSchedule, c, caps[i-1])
		}
	}

	return nil
}

// State returns the selector lifecycle state.
func (s *VertexSelector) State() types.SelectorState {
	return s.sm.State()
}

// Subscribe returns a channel of lifecycle state changes and an unsubscribe function.
func (s *VertexSelector) Subscribe() (<-chan types.SelectorState, func()) {
	return s.sm.Subscribe()
}

// Progress returns the executing round and committed weight while Running.
func (s *VertexSelector) Progress() (int, float64, bool) {
	return s.sm.Progress()
}

// Sending returns the weight committed per destination partition.
func (s *VertexSelector) Sending() map[types.PartID]float64 {
	return maps.Clone(s.sending)
}

// Run executes every round of the schedule and returns the resulting plan.
//
// Run is legal only once, from the Idle state. The selector is Done afterwards
// whether targets were met or not.
//
// Parameters:
//   - ctx: Context passed to hooks
//   - targets: Desired incoming weight per destination partition
//
// Returns:
//   - *plan.Plan: Region-to-partition plan; nil on error
//   - types.RunStats: Per-round and total statistics, filled up to the failing round on error
//   - error: types.ErrSelectorNotIdle, or a fatal selection error
func (s *VertexSelector) Run(ctx context.Context, targets *types.Targets) (*plan.Plan, types.RunStats, error) {
	stats := types.RunStats{Sequence: s.sequence}
	if targets == nil {
		return nil, stats, fmt.Errorf("%w: targets are required", types.ErrInvalidTarget)
	}
	if err := s.sm.Start(); err != nil {
		return nil, stats, err
	}
	s.notifyState(ctx, types.SelectorIdle, types.SelectorRunning)

	start := time.Now()
	clear(s.sending)
	p := plan.New()
	total := 0.0

	for i, maxCavity := range s.caps {
		s.round = i
		s.sm.SetProgress(i, total)

		rs, err := s.Select(ctx, targets, p, total, maxCavity)
		stats.Rounds = append(stats.Rounds, rs)
		total += rs.Weight
		stats.Forced += rs.Forced
		if err != nil {
			s.logger.Error("selection failed", "sequence", s.sequence, "round", i, "error", err)
			s.finish(ctx, &stats, p, total, start)

			return nil, stats, err
		}

		s.metrics.RecordRound(maxCavity, rs.Weight, rs.Assigned, rs.Forced, rs.Deferred, rs.Duration.Seconds())
		if err := s.hooks.OnRoundComplete(ctx, rs); err != nil {
			s.logger.Warn("round hook failed", "round", i, "error", err)
		}
	}

	s.finish(ctx, &stats, p, total, start)
	s.metrics.RecordRun(stats.Duration.Seconds(), total, p.Len())
	s.logger.Info("select elapsed",
		"sequence", s.sequence,
		"duration", stats.Duration,
		"weight", total,
		"regions", p.Len(),
		"forced", stats.Forced,
	)

	return p, stats, nil
}

func (s *VertexSelector) finish(ctx context.Context, stats *types.RunStats, p *plan.Plan, total float64, start time.Time) {
	stats.TotalWeight = total
	stats.Sending = s.Sending()
	stats.Regions = p.Len()
	stats.Duration = time.Since(start)

	if from, ok := s.sm.Finish(); ok {
		s.notifyState(ctx, from, types.SelectorDone)
	}
}

func (s *VertexSelector) notifyState(ctx context.Context, from, to types.SelectorState) {
	if err := s.hooks.OnStateChanged(ctx, from, to); err != nil {
		s.logger.Warn("state hook failed", "from", from, "to", to, "error", err)
	}
}

// Select runs one round over a fresh boundary sequence.
//
// The round stops once currentTotal exceeds the target total or the sequence
// is exhausted. Accepted moves are written to p and added to the selector's
// sending accumulator.
//
// Parameters:
//   - ctx: Context passed to hooks
//   - targets: Desired incoming weight per destination partition
//   - p: Plan shared by all rounds of the run
//   - currentTotal: Weight committed by earlier rounds
//   - maxCavity: Largest cavity moved voluntarily
//
// Returns:
//   - types.RoundStats: Round statistics; Weight is this round's contribution only
//   - error: types.ErrNoCandidates, types.ErrNoIncidentRegions, types.ErrMissingWeight
//     or types.ErrAlreadyPlanned, wrapped with the offending vertex
func (s *VertexSelector) Select(
	ctx context.Context,
	targets *types.Targets,
	p *plan.Plan,
	currentTotal float64,
	maxCavity int,
) (types.RoundStats, error) {
	start := time.Now()
	rs := types.RoundStats{Sequence: s.sequence, Round: s.round, MaxCavity: maxCavity}

	src := source.NewBoundary(s.mesh, s.labels)
	s.logger.Debug("round start", "round", s.round, "max_cavity", maxCavity, "vertices", src.Len())

	for v, ok := src.Next(); ok; v, ok = src.Next() {
		if currentTotal > targets.Total() {
			rs.EarlyExit = true
			break
		}
		rs.Visited++

		cav, err := s.resolver.Cavity(v, p)
		if err != nil {
			rs.Duration = time.Since(start)
			return rs, err
		}
		if len(cav) == 0 {
			rs.Skipped++
			continue
		}

		candidates := s.resolver.Candidates(v)
		if dest, ok := s.voluntary(candidates, targets, len(cav), maxCavity); ok {
			w, err := s.commit(p, v, cav, dest)
			if err != nil {
				rs.Duration = time.Since(start)
				return rs, err
			}
			currentTotal += w
			rs.Weight += w
			rs.Assigned++

			continue
		}

		if len(candidates) == 0 {
			// interior vertex: nowhere to send its cavity
			if len(s.resolver.Peers(v)) > 0 {
				rs.Duration = time.Since(start)
				return rs, fmt.Errorf("%w: vertex %d has remote sides but no candidate", types.ErrNoCandidates, v)
			}
			rs.Deferred++
			continue
		}
		if !s.resolver.Disconnected(cav, p) {
			rs.Deferred++
			continue
		}

		dest := candidates[0]
		w, err := s.commit(p, v, cav, dest)
		if err != nil {
			rs.Duration = time.Since(start)
			return rs, err
		}
		currentTotal += w
		rs.Weight += w
		rs.Forced++

		s.logger.Debug("forced disconnected cavity", "vertex", v, "dest", dest, "regions", len(cav), "weight", w)
		fm := types.ForcedMigration{
			Sequence: s.sequence,
			Round:    s.round,
			Vertex:   v,
			Dest:     dest,
			Cavity:   cav,
			Weight:   w,
		}
		if err := s.hooks.OnForcedMigration(ctx, fm); err != nil {
			s.logger.Warn("forced migration hook failed", "vertex", v, "error", err)
		}
	}

	rs.Duration = time.Since(start)
	s.logger.Debug("round end",
		"round", s.round,
		"max_cavity", maxCavity,
		"weight", rs.Weight,
		"assigned", rs.Assigned,
		"deferred", rs.Deferred,
		"disconnected", rs.Forced,
		"early_exit", rs.EarlyExit,
	)

	return rs, nil
}

// voluntary returns the first candidate that still wants weight, if the cavity fits the cap.
func (s *VertexSelector) voluntary(candidates []types.PartID, targets *types.Targets, size, maxCavity int) (types.PartID, bool) {
	if size > maxCavity {
		return 0, false
	}
	for _, p := range candidates {
		if targets.Has(p) && s.sending[p] < targets.Get(p) {
			return p, true
		}
	}

	return 0, false
}

// commit sends every cavity region to dest and returns the cavity weight.
//
// Weights are read before the plan is touched, so a missing weight leaves the plan unchanged.
func (s *VertexSelector) commit(p *plan.Plan, v types.Entity, cav []types.Entity, dest types.PartID) (float64, error) {
	w, err := s.weights.Sum(cav)
	if err != nil {
		return 0, fmt.Errorf("vertex %d: %w", v, err)
	}
	for _, region := range cav {
		if err := p.Send(region, dest); err != nil {
			return 0, fmt.Errorf("vertex %d: %w", v, err)
		}
	}
	s.sending[dest] += w

	return w, nil
}
