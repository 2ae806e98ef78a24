package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/skataria/specfuse/internal/cache"
	"github.com/skataria/specfuse/internal/chunk"
	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/oracle"
	"github.com/skataria/specfuse/internal/source"
	"github.com/skataria/specfuse/internal/track"
	"github.com/skataria/specfuse/internal/triangulate"
	"github.com/skataria/specfuse/internal/worker"
)

// Pipeline orchestrates the complete meta-ensemble extraction: N sequential
// runs of (concurrent source tasks -> run triangulation), followed by
// cross-run consensus.
type Pipeline struct {
	client  *oracle.Client
	chunker *chunk.Chunker
	config  *model.Config
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	provider, err := oracle.NewProvider(oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return nil, fmt.Errorf("oracle provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("no oracle provider configured")
	}
	return NewPipelineWithProvider(cfg, provider)
}

// NewPipelineWithProvider creates a pipeline around an existing oracle
// provider, for callers that supply their own extraction capability
func NewPipelineWithProvider(cfg *model.Config, provider oracle.Provider) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	limiter := worker.NewLimiter(cfg.Oracle.RequestsPerSecond, cfg.Oracle.BurstSize)

	opts := []oracle.ClientOption{
		oracle.WithRetries(cfg.Oracle.Retries, cfg.Oracle.RetryBackoff),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, oracle.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL), cfg.Cache.TTL))
	}

	return &Pipeline{
		client:  oracle.NewClient(provider, limiter, opts...),
		chunker: chunk.NewChunker(cfg.Chunking),
		config:  cfg,
	}, nil
}

// Result pairs the report with the invocation-level error, if any
type Result struct {
	Report *model.Report
	Error  error
}

// Extract runs the full meta-ensemble for one product. Runs execute
// sequentially: run k+1 does not start until run k's triangulation has
// completed, since runs are independent repeated trials, not a throughput
// pipeline. A failed run is recorded and skipped; the invocation only
// fails when no run completes.
func (p *Pipeline) Extract(ctx context.Context, product string, tables []*source.Table) (*model.Report, error) {
	if product == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("at least one source table is required")
	}

	tracker := track.New(product)
	coordinator := NewCoordinator(p.client, p.chunker, tracker)

	for runID := 1; runID <= p.config.Runs.Count; runID++ {
		tracker.StartRun(runID)

		canonical, err := p.executeRun(ctx, coordinator, runID, product, tables)
		if err != nil {
			tracker.FailRun(runID, err)
			if p.config.Output.Verbose {
				fmt.Fprintf(os.Stderr, "Warning: run %d failed: %v\n", runID, err)
			}
			continue
		}
		tracker.CompleteRun(runID, canonical)
	}

	completed := tracker.CompletedCanonical()
	consensus := triangulate.BuildConsensus(completed, p.config.Runs.Count, p.config.Consensus.Levels)
	report := tracker.BuildReport(consensus, p.config.Runs.Count)

	if report.CompletedRuns == 0 {
		return report, fmt.Errorf("no runs completed")
	}
	return report, nil
}

// executeRun performs one run: dispatch the source tasks, then triangulate.
// A panic in triangulation is an unexpected internal error, fatal to this
// run only.
func (p *Pipeline) executeRun(ctx context.Context, coordinator *Coordinator, runID int, product string, tables []*source.Table) (canonical []model.CanonicalSpecEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			canonical = nil
			err = fmt.Errorf("run %d internal error: %v", runID, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := coordinator.Run(ctx, runID, product, tables)
	return triangulate.MergeRun(candidates), nil
}
