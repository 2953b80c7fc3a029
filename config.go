package meshbal

import (
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for a Balancer.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// CavityCaps is the round schedule: each round visits the boundary once and
	// accepts voluntary cavities of at most the round's cap.
	// Caps must be positive and strictly increasing.
	//
	// Default: [2, 4, 6, 8, 10, 12]
	CavityCaps []int `yaml:"cavityCaps"`

	// MaxDistance limits measured boundary distances to this many hops from
	// the partition boundary. Vertices further away are never visited.
	// Negative means unlimited; 0 visits only vertices shared with another partition.
	//
	// Default: -1 from DefaultConfig and LoadConfig. SetDefaults leaves it
	// untouched because 0 is a meaningful value.
	MaxDistance int `yaml:"maxDistance"`

	// DefaultWeight is used for regions without a weight tag.
	// Zero makes a missing weight a fatal error.
	DefaultWeight float64 `yaml:"defaultWeight"`

	// PlanBucket is the NATS KV bucket that receives published plans.
	PlanBucket string `yaml:"planBucket"`

	// PlanKeyPrefix is prepended to the partition id in plan keys ("plan.3").
	PlanKeyPrefix string `yaml:"planKeyPrefix"`

	// PlanTTL is how long plan records remain in KV (0 = no expiration).
	PlanTTL time.Duration `yaml:"planTtl"`

	// KVRetries is the number of attempts used to create or open the plan bucket.
	KVRetries int `yaml:"kvRetries"`

	// OperationTimeout is the timeout for KV operations (bucket setup, put).
	// Recommended: 10 seconds.
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		CavityCaps:       []int{2, 4, 6, 8, 10, 12},
		MaxDistance:      -1,
		DefaultWeight:    0,
		PlanBucket:       "meshbal-plans",
		PlanKeyPrefix:    "plan",
		PlanTTL:          0, // No TTL - plans persist until the executor cleans up
		KVRetries:        3,
		OperationTimeout: 10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if len(cfg.CavityCaps) == 0 {
		cfg.CavityCaps = defaults.CavityCaps
	}
	if cfg.PlanBucket == "" {
		cfg.PlanBucket = defaults.PlanBucket
	}
	if cfg.PlanKeyPrefix == "" {
		cfg.PlanKeyPrefix = defaults.PlanKeyPrefix
	}
	if cfg.KVRetries == 0 {
		cfg.KVRetries = defaults.KVRetries
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	// Note: MaxDistance, DefaultWeight and PlanTTL are valid at 0, so we don't apply defaults
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - CavityCaps is non-empty, positive and strictly increasing
//   - DefaultWeight is finite and >= 0
//   - PlanBucket and PlanKeyPrefix are set
//   - KVRetries > 0 and OperationTimeout > 0
//   - PlanTTL >= 0
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if len(cfg.CavityCaps) == 0 {
		return fmt.Errorf("%w: CavityCaps must not be empty", ErrInvalidConfig)
	}
	for i, c := range cfg.CavityCaps {
		if c <= 0 {
			return fmt.Errorf("%w: CavityCaps[%d] must be > 0, got %d", ErrInvalidConfig, i, c)
		}
		if i > 0 && c <= cfg.CavityCaps[i-1] {
			return fmt.Errorf("%w: CavityCaps must be strictly increasing, got %v", ErrInvalidConfig, cfg.CavityCaps)
		}
	}

	if cfg.DefaultWeight < 0 || math.IsNaN(cfg.DefaultWeight) || math.IsInf(cfg.DefaultWeight, 0) {
		return fmt.Errorf("%w: DefaultWeight must be finite and >= 0, got %v", ErrInvalidConfig, cfg.DefaultWeight)
	}

	if cfg.PlanBucket == "" {
		return fmt.Errorf("%w: PlanBucket must not be empty", ErrInvalidConfig)
	}
	if cfg.PlanKeyPrefix == "" {
		return fmt.Errorf("%w: PlanKeyPrefix must not be empty", ErrInvalidConfig)
	}
	if cfg.PlanTTL < 0 {
		return fmt.Errorf("%w: PlanTTL must be >= 0, got %v", ErrInvalidConfig, cfg.PlanTTL)
	}
	if cfg.KVRetries <= 0 {
		return fmt.Errorf("%w: KVRetries must be > 0, got %d", ErrInvalidConfig, cfg.KVRetries)
	}
	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("%w: OperationTimeout must be > 0, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewBalancer() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if !slices.Equal(cfg.CavityCaps, DefaultConfig().CavityCaps) {
		logger.Warn(
			"CavityCaps differs from the standard schedule",
			"cavityCaps", cfg.CavityCaps,
			"recommended", DefaultConfig().CavityCaps,
		)
	}

	if cfg.DefaultWeight > 0 {
		logger.Warn(
			"DefaultWeight is set, untagged regions will not be reported",
			"defaultWeight", cfg.DefaultWeight,
		)
	}
}

// LoadConfig reads a YAML configuration file.
//
// Fields missing from the file keep their DefaultConfig values; the result is validated.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: The loaded configuration
//   - error: Read, parse or validation error
//
// Example:
//
//	cfg, err := meshbal.LoadConfig("meshbal.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// TestConfig returns a configuration suited for tests.
//
// KV operations fail fast and a single attempt is made to open the plan bucket.
//
// Returns:
//   - Config: Configuration with short timeouts for tests
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.PlanBucket = "meshbal-test-plans"
	cfg.KVRetries = 1
	cfg.OperationTimeout = 2 * time.Second

	return cfg
}
