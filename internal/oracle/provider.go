package oracle

import (
	"context"
	"time"

	"github.com/skataria/specfuse/internal/model"
)

// Provider is the extraction oracle: a callable capability that, given a
// text chunk and a product context, returns zero or more candidate
// specification statements. Assumed fallible, slow, and non-deterministic
// across identical calls; that non-determinism is what the multi-run
// consensus exists to tame.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Extract returns candidate (attribute, value, evidence) triples for
	// one chunk of one source
	Extract(ctx context.Context, req Request) ([]Candidate, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Request carries one oracle call's input
type Request struct {
	// Product is the fixed product context (e.g. "Diesel Generator")
	Product string

	// Source identifies which data source the chunk came from; the prompt
	// strategy varies per source
	Source model.SourceType

	// RunID is the 1-based run issuing the call
	RunID int

	// ChunkIndex is the chunk's position in its source's sequence
	ChunkIndex int

	// Text is the chunk content
	Text string
}

// Candidate is one extracted triple before it becomes a model.CandidateSpec
type Candidate struct {
	Attribute string
	Value     string
	Evidence  string
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout per API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for generation (kept low: extraction, not creativity)
	Temperature float32
}

// ConfigFromModel converts model.OracleConfig to oracle.Config
func ConfigFromModel(cfg model.OracleConfig) Config {
	return Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}
