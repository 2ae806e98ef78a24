package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skataria/specfuse/internal/model"
)

// Renderer writes invocation reports. The JSON report carries the full
// per-run detail; Markdown and CSV carry the consensus table for human
// reading and spreadsheet import.
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the complete report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the consensus table plus per-run status as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Specification Consensus: %s\n\n", report.Product)
	fmt.Fprintf(&b, "Invocation `%s` — %d of %d runs completed.\n\n",
		report.InvocationID, report.CompletedRuns, report.ConfiguredRuns)

	b.WriteString("| Attribute | Value | Agreement | Confidence | Runs |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range report.Consensus {
		fmt.Fprintf(&b, "| %s | %s | %d/%d | %d%% | %s |\n",
			e.Attribute, e.Value, e.AgreementCount, report.CompletedRuns,
			e.ConfidencePct, joinInts(e.Runs))
	}
	if len(report.Consensus) == 0 {
		b.WriteString("\n_No consensus entries were produced._\n")
	}

	b.WriteString("\n## Runs\n\n")
	for _, run := range report.Runs {
		fmt.Fprintf(&b, "### Run %d — %s (%s)\n\n", run.RunID, run.Status, run.Duration.Round(time.Millisecond))
		for _, task := range run.Tasks {
			fmt.Fprintf(&b, "- %s: %s, %d chunks (%d failed), %d candidates\n",
				task.Source.DisplayName(), task.Status, task.Chunks, task.FailedChunks, len(task.Candidates))
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderCSV writes the consensus table as CSV
func (r *Renderer) RenderCSV(report *model.Report, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"attribute", "value", "agreement_count", "confidence_pct", "runs"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range report.Consensus {
		record := []string{
			e.Attribute,
			e.Value,
			strconv.Itoa(e.AgreementCount),
			strconv.Itoa(e.ConfidencePct),
			joinInts(e.Runs),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// RenderSummary prints a short consensus summary to stderr
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Consensus: %s\n", report.Product)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Runs completed:  %d/%d\n", report.CompletedRuns, report.ConfiguredRuns)
	fmt.Fprintf(os.Stderr, "  Consensus facts: %d\n", len(report.Consensus))
	fmt.Fprintf(os.Stderr, "\n")

	for _, e := range report.Consensus {
		fmt.Fprintf(os.Stderr, "  %3d%%  %s = %s (%d/%d runs)\n",
			e.ConfidencePct, e.Attribute, e.Value, e.AgreementCount, report.CompletedRuns)
	}
	if len(report.Consensus) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func joinInts(ints []int) string {
	parts := make([]string, len(ints))
	for i, n := range ints {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
