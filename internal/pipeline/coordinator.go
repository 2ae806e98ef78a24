package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/skataria/specfuse/internal/chunk"
	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/oracle"
	"github.com/skataria/specfuse/internal/source"
	"github.com/skataria/specfuse/internal/track"
	"github.com/skataria/specfuse/internal/worker"
)

// Coordinator dispatches one extraction task per uploaded source for a
// single run. Tasks run concurrently relative to each other; within a task,
// chunks are processed in order. A task failing never aborts the others; it
// degrades that source's contribution to an empty candidate list.
type Coordinator struct {
	client  *oracle.Client
	chunker *chunk.Chunker
	tracker *track.Tracker
}

// NewCoordinator creates a coordinator for one invocation
func NewCoordinator(client *oracle.Client, chunker *chunk.Chunker, tracker *track.Tracker) *Coordinator {
	return &Coordinator{
		client:  client,
		chunker: chunker,
		tracker: tracker,
	}
}

// Run executes one run's extraction tasks and returns the union of all
// candidates across sources, tagged with the run ID
func (c *Coordinator) Run(ctx context.Context, runID int, product string, tables []*source.Table) []model.CandidateSpec {
	pool := worker.NewPool(len(tables))
	pool.Start()

	for _, t := range tables {
		pool.Submit(&extractTask{
			coordinator: c,
			runID:       runID,
			product:     product,
			table:       t,
			ctx:         ctx,
		})
	}

	var candidates []model.CandidateSpec
	for _, result := range pool.Wait() {
		task := result.(*taskResult)
		candidates = append(candidates, task.candidates...)
	}
	return candidates
}

// extractTask is one source-type extraction task: it consumes its source's
// chunks sequentially through the oracle
type extractTask struct {
	coordinator *Coordinator
	runID       int
	product     string
	table       *source.Table
	ctx         context.Context
}

func (t *extractTask) Name() string {
	return string(t.table.Source)
}

// Execute processes the source's chunks in order. A chunk that fails after
// retries is skipped and counted; only a task where every chunk failed is
// marked failed.
func (t *extractTask) Execute(poolCtx context.Context) worker.Result {
	started := time.Now()
	c := t.coordinator

	rec := model.TaskRecord{Source: t.table.Source}
	var lastErr error

	for ch := range c.chunker.Chunks(t.table) {
		rec.Chunks++

		extracted, err := c.client.Extract(t.ctx, oracle.Request{
			Product:    t.product,
			Source:     t.table.Source,
			RunID:      t.runID,
			ChunkIndex: ch.Index,
			Text:       ch.Text(),
		})
		if err != nil {
			rec.FailedChunks++
			lastErr = err
			// The owning task continues with the next chunk unless the
			// whole invocation was cancelled.
			if t.ctx.Err() != nil {
				break
			}
			continue
		}

		for _, cand := range extracted {
			rec.Candidates = append(rec.Candidates, model.CandidateSpec{
				Attribute: cand.Attribute,
				Value:     cand.Value,
				Source:    t.table.Source,
				Evidence:  cand.Evidence,
				RunID:     t.runID,
			})
		}
	}

	rec.Duration = time.Since(started)
	switch {
	case rec.Chunks == 0:
		rec.Status = model.TaskSkipped
	case rec.FailedChunks == rec.Chunks:
		rec.Status = model.TaskFailed
		rec.Error = fmt.Sprintf("all %d chunks failed: %v", rec.Chunks, lastErr)
	case rec.FailedChunks > 0:
		rec.Status = model.TaskDegraded
		rec.Error = fmt.Sprintf("%d of %d chunks failed: %v", rec.FailedChunks, rec.Chunks, lastErr)
	default:
		rec.Status = model.TaskCompleted
	}

	c.tracker.RecordTask(t.runID, rec)

	return &taskResult{source: t.table.Source, candidates: rec.Candidates}
}

// taskResult carries one task's candidates back through the pool
type taskResult struct {
	source     model.SourceType
	candidates []model.CandidateSpec
}

func (r *taskResult) TaskName() string {
	return string(r.source)
}

func (r *taskResult) Err() error {
	return nil
}
