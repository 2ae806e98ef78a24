package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/oracle"
	"github.com/skataria/specfuse/internal/source"
)

// scriptedOracle returns candidates keyed by (source, run), so tests can
// model run-to-run non-determinism and per-source failures
type scriptedOracle struct {
	perSource map[model.SourceType][]oracle.Candidate
	perRun    map[int][]oracle.Candidate
	failFor   map[model.SourceType]error
}

func (s *scriptedOracle) Name() string                         { return "scripted" }
func (s *scriptedOracle) IsAvailable(ctx context.Context) bool { return true }

func (s *scriptedOracle) Extract(ctx context.Context, req oracle.Request) ([]oracle.Candidate, error) {
	if err, ok := s.failFor[req.Source]; ok {
		return nil, err
	}
	var out []oracle.Candidate
	out = append(out, s.perSource[req.Source]...)
	out = append(out, s.perRun[req.RunID]...)
	return out, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Oracle.RequestsPerSecond = 0
	cfg.Oracle.Retries = 0
	cfg.Oracle.RetryBackoff = 0
	return cfg
}

func testTables(rows ...string) []*source.Table {
	t := &source.Table{Source: model.SourceSearchKeywords}
	for _, r := range rows {
		t.Rows = append(t.Rows, source.Row{Text: r, Weight: 1})
	}
	return []*source.Table{t}
}

func TestPipeline_FullAgreement(t *testing.T) {
	provider := &scriptedOracle{
		perSource: map[model.SourceType][]oracle.Candidate{
			model.SourceSearchKeywords: {
				{Attribute: "Capacity", Value: "30 KVA", Evidence: "30 kva genset"},
				{Attribute: "Fuel", Value: "Diesel"},
			},
		},
	}

	p, err := NewPipelineWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	report, err := p.Extract(context.Background(), "Diesel Generator", testTables("30 kva diesel genset"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if report.CompletedRuns != 3 {
		t.Errorf("completed runs = %d, want 3", report.CompletedRuns)
	}
	if len(report.Consensus) != 2 {
		t.Fatalf("consensus entries = %d, want 2: %v", len(report.Consensus), report.Consensus)
	}
	for _, e := range report.Consensus {
		if e.AgreementCount != 3 || e.ConfidencePct != 100 {
			t.Errorf("entry %+v, want 3-run agreement at 100", e)
		}
	}
	if report.InvocationID == "" {
		t.Error("invocation ID should be set")
	}
}

func TestPipeline_PartialAgreementAcrossRuns(t *testing.T) {
	provider := &scriptedOracle{
		perSource: map[model.SourceType][]oracle.Candidate{
			model.SourceSearchKeywords: {{Attribute: "Capacity", Value: "30 KVA"}},
		},
		perRun: map[int][]oracle.Candidate{
			1: {{Attribute: "Phase", Value: "Three Phase"}},
		},
	}

	p, err := NewPipelineWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	report, err := p.Extract(context.Background(), "Diesel Generator", testTables("30 kva three phase"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	byAttr := make(map[string]model.ConsensusEntry)
	for _, e := range report.Consensus {
		byAttr[e.Attribute] = e
	}

	if e := byAttr["capacity"]; e.AgreementCount != 3 || e.ConfidencePct != 100 {
		t.Errorf("capacity = %+v, want 3 runs at 100", e)
	}
	if e := byAttr["phase"]; e.AgreementCount != 1 || e.ConfidencePct != 30 {
		t.Errorf("phase = %+v, want 1 run at 30", e)
	}
	if len(report.Consensus) > 0 && report.Consensus[0].Attribute != "capacity" {
		t.Errorf("highest-confidence entry should lead, got %+v", report.Consensus[0])
	}
}

func TestPipeline_FailingSourceDegradesRun(t *testing.T) {
	provider := &scriptedOracle{
		perSource: map[model.SourceType][]oracle.Candidate{
			model.SourceSearchKeywords: {{Attribute: "Capacity", Value: "30 KVA"}},
		},
		failFor: map[model.SourceType]error{
			model.SourceChatLogs: errors.New("oracle unavailable"),
		},
	}

	tables := testTables("30 kva genset")
	tables = append(tables, &source.Table{
		Source: model.SourceChatLogs,
		Rows:   []source.Row{{Text: "need a generator", Weight: 1}},
	})

	p, err := NewPipelineWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	report, err := p.Extract(context.Background(), "Diesel Generator", tables)
	if err != nil {
		t.Fatalf("a failing source must not fail the invocation: %v", err)
	}

	if report.CompletedRuns != 3 {
		t.Errorf("completed runs = %d, want 3", report.CompletedRuns)
	}
	for _, run := range report.Runs {
		if run.Status != model.RunDegraded {
			t.Errorf("run %d status = %s, want %s", run.RunID, run.Status, model.RunDegraded)
		}
		for _, task := range run.Tasks {
			if task.Source == model.SourceChatLogs && task.Status != model.TaskFailed {
				t.Errorf("run %d chat task status = %s, want %s", run.RunID, task.Status, model.TaskFailed)
			}
		}
	}
	// The surviving source still reaches full-agreement consensus.
	if len(report.Consensus) != 1 || report.Consensus[0].ConfidencePct != 100 {
		t.Errorf("consensus = %v", report.Consensus)
	}
}

func TestPipeline_EmptyTableSkipsTask(t *testing.T) {
	provider := &scriptedOracle{
		perSource: map[model.SourceType][]oracle.Candidate{
			model.SourceSearchKeywords: {{Attribute: "Capacity", Value: "30 KVA"}},
		},
	}

	tables := testTables("30 kva genset")
	tables = append(tables, &source.Table{Source: model.SourceRejectionFeedback})

	p, err := NewPipelineWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	report, err := p.Extract(context.Background(), "Diesel Generator", tables)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	for _, run := range report.Runs {
		if run.Status != model.RunCompleted {
			t.Errorf("run %d status = %s, want %s", run.RunID, run.Status, model.RunCompleted)
		}
		for _, task := range run.Tasks {
			if task.Source == model.SourceRejectionFeedback && task.Status != model.TaskSkipped {
				t.Errorf("empty source task status = %s, want %s", task.Status, model.TaskSkipped)
			}
		}
	}
}

func TestPipeline_CancelledContextFailsAllRuns(t *testing.T) {
	provider := &scriptedOracle{}
	p, err := NewPipelineWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Extract(ctx, "Diesel Generator", testTables("30 kva"))
	if err == nil {
		t.Fatal("expected invocation failure when no run completes")
	}
	if report == nil {
		t.Fatal("a failed invocation still returns its report")
	}
	if report.CompletedRuns != 0 {
		t.Errorf("completed runs = %d, want 0", report.CompletedRuns)
	}
	for _, run := range report.Runs {
		if run.Status != model.RunFailed {
			t.Errorf("run %d status = %s, want %s", run.RunID, run.Status, model.RunFailed)
		}
	}
}

func TestPipeline_InputValidation(t *testing.T) {
	p, err := NewPipelineWithProvider(testConfig(), &scriptedOracle{})
	if err != nil {
		t.Fatalf("NewPipelineWithProvider() error: %v", err)
	}

	if _, err := p.Extract(context.Background(), "", testTables("x")); err == nil {
		t.Error("expected error for empty product")
	}
	if _, err := p.Extract(context.Background(), "Diesel Generator", nil); err == nil {
		t.Error("expected error for missing tables")
	}
}

func TestNewPipelineWithProvider_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Runs.Count = 5 // levels only cover 1..3

	if _, err := NewPipelineWithProvider(cfg, &scriptedOracle{}); err == nil {
		t.Error("expected config validation error")
	}
}
