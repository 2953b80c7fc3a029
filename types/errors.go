package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the meshbal library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Selection errors are split in two groups. Precondition violations are fatal:
// they cannot occur with a consistent mesh and plan, and a run that hits one
// stops immediately. Unmet targets, empty cavities and forced migrations are
// not errors at all.

// Balancer errors - Public API errors returned by the Balancer and configuration.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMeshRequired is returned when a nil mesh is supplied.
	ErrMeshRequired = errors.New("mesh is required")

	// ErrWeightTagRequired is returned when a nil weight tag is supplied.
	ErrWeightTagRequired = errors.New("weight tag is required")

	// ErrInvalidTarget is returned when a target weight is negative or not finite.
	ErrInvalidTarget = errors.New("invalid target weight")
)

// Selector errors - Precondition violations raised during selection.
var (
	// ErrSelectorNotIdle is returned when Run is called on a selector that already ran.
	ErrSelectorNotIdle = errors.New("selector is not idle")

	// ErrUnsupportedDimension is returned for meshes without codimension-2 sides.
	ErrUnsupportedDimension = errors.New("unsupported mesh dimension")

	// ErrNoCandidates is returned when a vertex has remote sides yet yields no destination partition.
	ErrNoCandidates = errors.New("no candidate destination partition")

	// ErrNoIncidentRegions is returned when a vertex has no incident regions.
	ErrNoIncidentRegions = errors.New("vertex has no incident regions")

	// ErrAlreadyPlanned is returned when a region that already has a destination is sent again.
	ErrAlreadyPlanned = errors.New("region already planned")
)

// Weight errors - Weight tag access errors.
var (
	// ErrMissingWeight is returned when a region has no weight and no default is configured.
	ErrMissingWeight = errors.New("region has no weight")

	// ErrInvalidWeight is returned when a weight is negative or not finite.
	ErrInvalidWeight = errors.New("invalid weight")
)

// Publisher errors - Plan hand-off errors.
var (
	// ErrJetStreamRequired is returned when publishing is requested without a JetStream handle.
	ErrJetStreamRequired = errors.New("JetStream is required")

	// ErrStalePlanVersion is returned when a plan is published with a sequence that is not newer.
	ErrStalePlanVersion = errors.New("stale plan version")

	// ErrPublishFailed is returned when writing a plan record to NATS KV fails.
	ErrPublishFailed = errors.New("failed to publish plan")

	// ErrNoKeysFound is returned when NATS KV returns no keys (expected condition).
	ErrNoKeysFound = errors.New("no keys found")
)

// IsNoKeysFoundError checks if an error indicates that no keys were found in NATS KV.
//
// This function handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list KV keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found, false otherwise
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}
