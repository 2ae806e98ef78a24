package model

import "time"

// Report is the complete read-only result of one extraction invocation:
// the final consensus table plus every run's canonical table and raw
// per-task candidate lists with timing and failure metadata.
type Report struct {
	InvocationID string    `json:"invocation_id"`
	Product      string    `json:"product"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`

	ConfiguredRuns int `json:"configured_runs"` // N from configuration
	CompletedRuns  int `json:"completed_runs"`  // Runs that produced a canonical table

	Consensus []ConsensusEntry `json:"consensus"` // Final confidence-ranked table
	Runs      []RunDetail      `json:"runs"`      // Per-run detail in run order

	Logs []string `json:"logs,omitempty"`
}

// RunStatus describes the outcome of one run
type RunStatus string

const (
	RunCompleted RunStatus = "completed" // All tasks succeeded
	RunDegraded  RunStatus = "degraded"  // Completed with at least one failed source task
	RunFailed    RunStatus = "failed"    // Produced no canonical output
)

// RunDetail is the per-run snapshot handed to export/UI collaborators
type RunDetail struct {
	RunID     int           `json:"run_id"`
	Status    RunStatus     `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Canonical []CanonicalSpecEntry `json:"canonical"` // The run's triangulated table
	Tasks     []TaskRecord         `json:"tasks"`     // One per dispatched source task

	Error string `json:"error,omitempty"`
}

// TaskStatus describes the outcome of one source-type extraction task
type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskDegraded  TaskStatus = "degraded" // Some chunks failed, some succeeded
	TaskFailed    TaskStatus = "failed"   // Every chunk failed
	TaskSkipped   TaskStatus = "skipped"  // Source not uploaded or empty
)

// TaskRecord captures one extraction task's outcome, including the raw
// candidates it produced before triangulation.
type TaskRecord struct {
	Source       SourceType      `json:"source"`
	Status       TaskStatus      `json:"status"`
	Chunks       int             `json:"chunks"`
	FailedChunks int             `json:"failed_chunks"`
	Candidates   []CandidateSpec `json:"candidates,omitempty"`
	Duration     time.Duration   `json:"duration"`
	Error        string          `json:"error,omitempty"`
}
