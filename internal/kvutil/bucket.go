// Package kvutil provides helpers for the NATS JetStream KeyValue buckets
// that carry migration plans between the selecting and executing stages.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	defaultRetries = 3
	baseBackoff    = 10 * time.Millisecond
)

// BucketConfig describes a plan bucket.
type BucketConfig struct {
	// Bucket is the KV bucket name.
	Bucket string

	// Description is stored with the bucket.
	Description string

	// TTL expires plan records after the given age. Zero keeps them forever.
	TTL time.Duration

	// Storage selects file or memory storage. Default: file.
	Storage jetstream.StorageType
}

// EnsureBucket creates or opens a KV bucket, retrying transient failures.
//
// Several balancers in one process may race to create the same bucket; the
// losers open the bucket the winner created. Retries back off exponentially
// starting at 10ms.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream handle
//   - cfg: Bucket configuration
//   - maxRetries: Maximum number of attempts (<= 0 means 3)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket
//   - error: Last failure once all attempts are used, or the context error
//
// Example:
//
//	kv, err := kvutil.EnsureBucket(ctx, js, kvutil.BucketConfig{
//	    Bucket: "meshbal-plans",
//	    TTL:    time.Hour,
//	}, 3)
func EnsureBucket(ctx context.Context, js jetstream.JetStream, cfg BucketConfig, maxRetries int) (jetstream.KeyValue, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}

	kvCfg := jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: cfg.Description,
		TTL:         cfg.TTL,
		History:     1,
		Storage:     cfg.Storage,
	}

	var lastErr error
	for attempt := range maxRetries {
		kv, err := open(ctx, js, kvCfg)
		if err == nil {
			return kv, nil
		}
		lastErr = err

		if isPermanent(err) {
			return nil, fmt.Errorf("failed to create/open KV bucket %s: %w", cfg.Bucket, err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled while ensuring bucket %s: %w", cfg.Bucket, ctx.Err())
		}
		if attempt == maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Backoff(attempt)):
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w", cfg.Bucket, maxRetries, lastErr)
}

// open makes one create-or-open attempt.
func open(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.CreateKeyValue(ctx, cfg)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketExists) {
		return nil, err
	}

	kv, err = js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists but failed to open: %w", err)
	}

	return kv, nil
}

// Backoff returns the wait before retry attempt+1: 10ms, 20ms, 40ms and so on.
func Backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), 10)
	return baseBackoff << uint(attempt) //nolint:gosec // bounded above
}
