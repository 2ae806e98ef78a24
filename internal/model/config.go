package model

import (
	"fmt"
	"time"
)

// Config holds the complete configuration for one extraction invocation.
// Nothing here persists across invocations.
type Config struct {
	Runs      RunsConfig      `yaml:"runs" mapstructure:"runs"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Consensus ConsensusConfig `yaml:"consensus" mapstructure:"consensus"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// RunsConfig controls the meta-ensemble repetition
type RunsConfig struct {
	Count int `yaml:"count" mapstructure:"count"` // Number of independent runs (N)
}

// ChunkingConfig bounds how source rows are grouped into oracle-sized chunks
type ChunkingConfig struct {
	TokenBudget int `yaml:"token_budget" mapstructure:"token_budget"` // Estimated tokens per chunk before it closes
	MinRows     int `yaml:"min_rows" mapstructure:"min_rows"`         // A chunk never closes on density below this many rows
	MaxRows     int `yaml:"max_rows" mapstructure:"max_rows"`         // Hard upper bound on rows per chunk
}

// OracleConfig configures the external extraction oracle
type OracleConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // "openai" ("" disables, for dry runs)
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"-" mapstructure:"-"` // From OPENAI_API_KEY, never written to config files
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-call timeout
	Retries           int           `yaml:"retries" mapstructure:"retries"` // Retries per chunk on transient failure
	RetryBackoff      time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32       `yaml:"temperature" mapstructure:"temperature"`
}

// CacheConfig controls oracle response caching. Reusing responses across runs
// collapses the ensemble, so this is off by default and exists to exercise
// the pipeline without burning tokens.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConsensusConfig maps agreement counts to confidence percentages.
// The mapping is deliberately a lookup table, not a formula: the policy
// weights higher agreement disproportionately (3-of-3 is 100, 2-of-3 is 70,
// 1-of-3 is 30).
type ConsensusConfig struct {
	Levels map[int]int `yaml:"levels" mapstructure:"levels"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the standard configuration: 3 runs, chunk bounds of
// roughly 3000-8500 rows, and the 100/70/30 confidence table.
func DefaultConfig() *Config {
	return &Config{
		Runs: RunsConfig{Count: 3},
		Chunking: ChunkingConfig{
			TokenBudget: 60000,
			MinRows:     3000,
			MaxRows:     8500,
		},
		Oracle: OracleConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			Retries:           2,
			RetryBackoff:      2 * time.Second,
			RequestsPerSecond: 2,
			BurstSize:         4,
			MaxTokens:         2000,
			Temperature:       0.1,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     10 * time.Minute,
		},
		Consensus: ConsensusConfig{
			Levels: map[int]int{1: 30, 2: 70, 3: 100},
		},
		Output: OutputConfig{},
	}
}

// Validate checks invariants the rest of the pipeline relies on.
// The confidence table must cover every agreement count 1..N: changing the
// run count without supplying a matching table is a configuration error,
// not something to derive a formula for.
func (c *Config) Validate() error {
	if c.Runs.Count < 1 {
		return fmt.Errorf("runs.count must be >= 1, got %d", c.Runs.Count)
	}
	if c.Chunking.MinRows < 1 || c.Chunking.MaxRows < c.Chunking.MinRows {
		return fmt.Errorf("chunking bounds invalid: min_rows=%d max_rows=%d",
			c.Chunking.MinRows, c.Chunking.MaxRows)
	}
	if c.Chunking.TokenBudget < 1 {
		return fmt.Errorf("chunking.token_budget must be >= 1, got %d", c.Chunking.TokenBudget)
	}
	if c.Oracle.Retries < 0 {
		return fmt.Errorf("oracle.retries must be >= 0, got %d", c.Oracle.Retries)
	}
	for agreement := 1; agreement <= c.Runs.Count; agreement++ {
		pct, ok := c.Consensus.Levels[agreement]
		if !ok {
			return fmt.Errorf("consensus.levels missing entry for agreement count %d (runs.count=%d)",
				agreement, c.Runs.Count)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("consensus.levels[%d] out of range: %d", agreement, pct)
		}
	}
	// Confidence must be strictly increasing in agreement count.
	for agreement := 2; agreement <= c.Runs.Count; agreement++ {
		if c.Consensus.Levels[agreement] <= c.Consensus.Levels[agreement-1] {
			return fmt.Errorf("consensus.levels must be strictly increasing: levels[%d]=%d <= levels[%d]=%d",
				agreement, c.Consensus.Levels[agreement], agreement-1, c.Consensus.Levels[agreement-1])
		}
	}
	return nil
}
