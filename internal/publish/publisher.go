// Package publish hands migration plans to the execution stage through a
// NATS JetStream KV bucket.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/meshbal/plan"
	"github.com/arloliu/meshbal/types"
)

// Publisher writes plan records to NATS KV under "prefix.<source partition>".
//
// Versions are monotonic per source partition across process restarts: the
// highest stored version is discovered before the first publish and every
// later record must carry a larger run sequence number.
type Publisher struct {
	kv        jetstream.KeyValue
	prefix    string
	keyPrefix string // cached "prefix."

	mu         sync.Mutex
	discovered bool
	versions   map[types.PartID]int64

	logger  types.Logger
	metrics types.PublisherMetrics
}

// NewPublisher creates a plan publisher.
//
// Parameters:
//   - kv: NATS KV bucket for plan records
//   - prefix: Prefix for plan keys (e.g., "plan")
//   - logger: Logger for publishing events
//   - metrics: Metrics collector for publish operations
//
// Returns:
//   - *Publisher: A new publisher instance
func NewPublisher(kv jetstream.KeyValue, prefix string, logger types.Logger, metrics types.PublisherMetrics) *Publisher {
	return &Publisher{
		kv:        kv,
		prefix:    prefix,
		keyPrefix: prefix + ".",
		versions:  make(map[types.PartID]int64),
		logger:    logger,
		metrics:   metrics,
	}
}

// Key returns the KV key of source's plan record.
func (p *Publisher) Key(source types.PartID) string {
	return p.keyPrefix + strconv.FormatInt(int64(source), 10)
}

// DiscoverHighestVersion scans KV for the highest stored version of every source.
//
// Unreadable or malformed entries are skipped.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - int64: Highest version over all sources (0 when the bucket holds no plans)
//   - error: Nil on success, error on KV access failure
func (p *Publisher) DiscoverHighestVersion(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.discoverLocked(ctx)
}

func (p *Publisher) discoverLocked(ctx context.Context) (int64, error) {
	keys, err := p.keys(ctx)
	if err != nil {
		return 0, err
	}

	p.logger.Debug("discovering highest plan version", "total_keys", len(keys), "prefix", p.prefix)

	versions := make(map[types.PartID]int64)
	highest := int64(0)
	for _, key := range keys {
		source, ok := p.parseKey(key)
		if !ok {
			continue
		}

		rec, err := p.get(ctx, key)
		if err != nil {
			p.logger.Debug("skipping unreadable plan record", "key", key, "error", err)
			continue
		}
		versions[source] = max(versions[source], rec.Version)
		highest = max(highest, rec.Version)
	}

	p.versions = versions
	p.discovered = true

	if highest > 0 {
		p.logger.Info("discovered existing plans", "highest_version", highest, "sources", len(versions))
	}

	return highest, nil
}

// CurrentVersion returns the last known version of source's plan, 0 if none.
func (p *Publisher) CurrentVersion(source types.PartID) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.versions[source]
}

// Publish writes the plan built by source's run seq.
//
// Parameters:
//   - ctx: Context for cancellation
//   - source: Partition whose regions the plan moves
//   - seq: Run sequence number, stored as the record version
//   - pl: The plan
//   - stats: Statistics of the run that built pl
//
// Returns:
//   - types.PlanRecord: The record as written
//   - error: types.ErrStalePlanVersion if seq is not above the stored version,
//     types.ErrPublishFailed wrapping KV failures
//
// Example:
//
//	rec, err := pub.Publish(ctx, 3, seq, p, stats)
//	if errors.Is(err, types.ErrStalePlanVersion) {
//	    // a newer run already published for partition 3
//	}
func (p *Publisher) Publish(
	ctx context.Context,
	source types.PartID,
	seq int64,
	pl *plan.Plan,
	stats types.RunStats,
) (types.PlanRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.discovered {
		if _, err := p.discoverLocked(ctx); err != nil {
			return types.PlanRecord{}, err
		}
	}

	if current := p.versions[source]; seq <= current {
		return types.PlanRecord{}, fmt.Errorf("%w: partition %d has version %d, got %d",
			types.ErrStalePlanVersion, source, current, seq)
	}

	rec := pl.Record(source, seq, stats.TotalWeight)
	data, err := json.Marshal(rec)
	if err != nil {
		return types.PlanRecord{}, fmt.Errorf("failed to marshal plan record: %w", err)
	}

	key := p.Key(source)
	start := time.Now()
	_, err = p.kv.Put(ctx, key, data)
	p.metrics.RecordKVOperationDuration("put", time.Since(start).Seconds())
	if err != nil {
		return types.PlanRecord{}, fmt.Errorf("%w: %s: %w", types.ErrPublishFailed, key, err)
	}

	p.versions[source] = seq
	p.metrics.RecordPlanPublished(rec.Regions, seq)
	p.logger.Info("plan published",
		"key", key,
		"version", seq,
		"regions", rec.Regions,
		"destinations", len(rec.Moves),
		"fingerprint", rec.Fingerprint,
	)

	return rec, nil
}

// Load reads source's plan record.
//
// Returns:
//   - types.PlanRecord: The stored record
//   - error: Wraps jetstream.ErrKeyNotFound when source has no plan
func (p *Publisher) Load(ctx context.Context, source types.PartID) (types.PlanRecord, error) {
	return p.get(ctx, p.Key(source))
}

// Cleanup deletes the plan records of sources not listed in keep.
//
// A nil keep deletes every plan record. Individual delete failures are logged
// and skipped.
//
// Returns:
//   - int: Number of records deleted
//   - error: Nil on success, error when keys cannot be listed
func (p *Publisher) Cleanup(ctx context.Context, keep []types.PartID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.keys(ctx)
	if err != nil {
		return 0, err
	}

	retain := make(map[types.PartID]bool, len(keep))
	for _, s := range keep {
		retain[s] = true
	}

	deleted := 0
	for _, key := range keys {
		source, ok := p.parseKey(key)
		if !ok || retain[source] {
			continue
		}

		start := time.Now()
		err := p.kv.Delete(ctx, key)
		p.metrics.RecordKVOperationDuration("delete", time.Since(start).Seconds())
		if err != nil {
			p.logger.Warn("failed to delete stale plan", "key", key, "error", err)
			continue
		}
		delete(p.versions, source)
		deleted++
	}

	if deleted > 0 {
		p.logger.Info("cleaned up stale plans", "deleted_count", deleted)
	}

	return deleted, nil
}

func (p *Publisher) keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := p.kv.Keys(ctx)
	p.metrics.RecordKVOperationDuration("keys", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) || types.IsNoKeysFoundError(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list KV keys: %w", err)
	}

	return keys, nil
}

func (p *Publisher) get(ctx context.Context, key string) (types.PlanRecord, error) {
	start := time.Now()
	entry, err := p.kv.Get(ctx, key)
	p.metrics.RecordKVOperationDuration("get", time.Since(start).Seconds())
	if err != nil {
		return types.PlanRecord{}, fmt.Errorf("failed to read plan %s: %w", key, err)
	}

	var rec types.PlanRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return types.PlanRecord{}, fmt.Errorf("failed to unmarshal plan %s: %w", key, err)
	}

	return rec, nil
}

// parseKey extracts the source partition from a plan key, skipping foreign keys.
func (p *Publisher) parseKey(key string) (types.PartID, bool) {
	rest, ok := strings.CutPrefix(key, p.keyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 32)
	if err != nil {
		return 0, false
	}

	return types.PartID(id), true
}
