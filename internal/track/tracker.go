package track

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skataria/specfuse/internal/model"
)

// Tracker is the process-scoped accumulator for one orchestration
// invocation: per-run intermediate tables, per-task outcomes and timing,
// and an append-only event log. The five concurrent source tasks of a run
// write through one mutex, so records never interleave partially; readers
// only ever see completed snapshots.
type Tracker struct {
	mu sync.Mutex

	invocationID string
	product      string
	startedAt    time.Time

	runs map[int]*runState
	logs []string
}

type runState struct {
	startedAt time.Time
	duration  time.Duration
	status    model.RunStatus
	canonical []model.CanonicalSpecEntry
	tasks     []model.TaskRecord
	err       string
}

// New creates a tracker for one invocation
func New(product string) *Tracker {
	return &Tracker{
		invocationID: uuid.NewString(),
		product:      product,
		startedAt:    time.Now().UTC(),
		runs:         make(map[int]*runState),
	}
}

// InvocationID returns the invocation's unique ID
func (t *Tracker) InvocationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invocationID
}

// StartRun records the beginning of a run
func (t *Tracker) StartRun(runID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs[runID] = &runState{startedAt: time.Now().UTC()}
	t.logs = append(t.logs, fmt.Sprintf("run %d: started", runID))
}

// RecordTask appends one source task's outcome to its run. Called
// concurrently by the extraction tasks.
func (t *Tracker) RecordTask(runID int, rec model.TaskRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		return
	}
	run.tasks = append(run.tasks, rec)
	t.logs = append(t.logs, fmt.Sprintf("run %d: %s task %s (%d candidates, %d/%d chunks failed)",
		runID, rec.Source, rec.Status, len(rec.Candidates), rec.FailedChunks, rec.Chunks))
}

// CompleteRun records a run's canonical table. The run is marked degraded
// when any of its dispatched tasks failed outright.
func (t *Tracker) CompleteRun(runID int, canonical []model.CanonicalSpecEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		return
	}
	run.duration = time.Since(run.startedAt)
	run.canonical = canonical

	run.status = model.RunCompleted
	for _, task := range run.tasks {
		if task.Status == model.TaskFailed {
			run.status = model.RunDegraded
			break
		}
	}
	t.logs = append(t.logs, fmt.Sprintf("run %d: %s with %d canonical entries", runID, run.status, len(canonical)))
}

// FailRun records a run that produced no canonical output
func (t *Tracker) FailRun(runID int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		run = &runState{startedAt: time.Now().UTC()}
		t.runs[runID] = run
	}
	run.duration = time.Since(run.startedAt)
	run.status = model.RunFailed
	if err != nil {
		run.err = err.Error()
	}
	t.logs = append(t.logs, fmt.Sprintf("run %d: failed: %v", runID, err))
}

// Logf appends a formatted event to the invocation log
func (t *Tracker) Logf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

// CompletedCanonical returns the canonical tables of every non-failed run,
// in run order, for the consensus engine
func (t *Tracker) CompletedCanonical() [][]model.CanonicalSpecEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var tables [][]model.CanonicalSpecEntry
	for _, id := range t.sortedRunIDs() {
		run := t.runs[id]
		if run.status == model.RunFailed {
			continue
		}
		tables = append(tables, run.canonical)
	}
	return tables
}

// BuildReport assembles the read-only invocation snapshot for downstream
// rendering and export
func (t *Tracker) BuildReport(consensus []model.ConsensusEntry, configuredRuns int) *model.Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := &model.Report{
		InvocationID:   t.invocationID,
		Product:        t.product,
		StartedAt:      t.startedAt,
		CompletedAt:    time.Now().UTC(),
		ConfiguredRuns: configuredRuns,
		Consensus:      consensus,
		Logs:           append([]string(nil), t.logs...),
	}

	for _, id := range t.sortedRunIDs() {
		run := t.runs[id]

		tasks := append([]model.TaskRecord(nil), run.tasks...)
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].Source < tasks[j].Source })

		report.Runs = append(report.Runs, model.RunDetail{
			RunID:     id,
			Status:    run.status,
			StartedAt: run.startedAt,
			Duration:  run.duration,
			Canonical: append([]model.CanonicalSpecEntry(nil), run.canonical...),
			Tasks:     tasks,
			Error:     run.err,
		})
		if run.status != model.RunFailed {
			report.CompletedRuns++
		}
	}

	return report
}

func (t *Tracker) sortedRunIDs() []int {
	ids := make([]int, 0, len(t.runs))
	for id := range t.runs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
