package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/pipeline"
	"github.com/skataria/specfuse/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	keywordsFile   string
	chatsFile      string
	callsFile      string
	specsFile      string
	rejectionsFile string

	runCount      int
	outJSON       string
	outMD         string
	outCSV        string
	oracleModel   string
	oracleTimeout time.Duration
	retries       int
	useCache      bool
	totalTimeout  time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <product-name>",
	Short: "Run meta-ensemble specification extraction for one product",
	Long: `Extract runs the full consensus pipeline for one product:
- Split each uploaded source table into oracle-sized chunks
- Run one extraction task per source, concurrently, against the oracle
- Triangulate each run's candidates into a canonical specification table
- Repeat for N independent runs and build the cross-run consensus

Sources are CSV files; supply any subset of the five. Missing sources are
skipped, and a failing source degrades coverage instead of failing the run.

Example:
  specfuse extract "Diesel Generator" --keywords keywords.csv --calls calls.csv
  specfuse extract "Diesel Generator" --keywords k.csv --runs 5 --json out.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Source files
	extractCmd.Flags().StringVar(&keywordsFile, "keywords", "", "search keywords CSV (columns: keyword, pageviews)")
	extractCmd.Flags().StringVar(&chatsFile, "chats", "", "chat logs CSV (column: message_payload)")
	extractCmd.Flags().StringVar(&callsFile, "calls", "", "call transcripts CSV (column: transcribed_text)")
	extractCmd.Flags().StringVar(&specsFile, "specs", "", "specification forms CSV (column: spec_description)")
	extractCmd.Flags().StringVar(&rejectionsFile, "rejections", "", "rejection feedback CSV (column: rejection_text)")

	// Pipeline flags
	extractCmd.Flags().IntVar(&runCount, "runs", 3, "number of independent extraction runs")
	extractCmd.Flags().DurationVar(&totalTimeout, "timeout", 30*time.Minute, "overall invocation timeout")

	// Oracle flags
	extractCmd.Flags().StringVar(&oracleModel, "oracle-model", "gpt-4o-mini", "oracle model name")
	extractCmd.Flags().DurationVar(&oracleTimeout, "oracle-timeout", 60*time.Second, "per-call oracle timeout")
	extractCmd.Flags().IntVar(&retries, "retries", 2, "retries per chunk on transient oracle failure")
	extractCmd.Flags().BoolVar(&useCache, "cache", false, "reuse oracle responses across runs (collapses the ensemble; plumbing tests only)")

	// Output flags
	extractCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	extractCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	extractCmd.Flags().StringVar(&outCSV, "csv", "", "output consensus CSV path (optional)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	product := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), totalTimeout)
	defer cancel()

	// Build configuration from flags
	cfg := model.DefaultConfig()
	cfg.Runs.Count = runCount
	cfg.Oracle.Model = oracleModel
	cfg.Oracle.Timeout = oracleTimeout
	cfg.Oracle.Retries = retries
	cfg.Cache.Enabled = useCache
	cfg.Output.Verbose = verbose

	cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	if err := overlayFileConfig(cfg); err != nil {
		return err
	}

	// Consensus levels for a non-default run count must come from the
	// config file; there is no formula to fall back on.
	if err := cfg.Validate(); err != nil {
		if runCount != 3 {
			return fmt.Errorf("runs=%d needs a matching consensus.levels table in the config file: %w", runCount, err)
		}
		return err
	}

	tables, err := loadTables()
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("no source files given: supply at least one of --keywords, --chats, --calls, --specs, --rejections")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Product: %s\n", product)
		fmt.Fprintf(os.Stderr, "Runs: %d\n", runCount)
		for _, t := range tables {
			fmt.Fprintf(os.Stderr, "Source %s: %d rows\n", t.Source.DisplayName(), len(t.Rows))
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	report, runErr := p.Extract(ctx, product, tables)
	if report == nil {
		return fmt.Errorf("extract failed: %w", runErr)
	}

	// Best-effort output: a partially failed invocation still renders
	// whatever was produced, annotated with how many runs contributed.
	renderer := pipeline.NewRenderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	if outCSV != "" {
		if err := renderer.RenderCSV(report, outCSV); err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote CSV: %s\n", outCSV)
		}
	}

	renderer.RenderSummary(report)

	if runErr != nil {
		return fmt.Errorf("extraction incomplete: %w", runErr)
	}
	return nil
}

// overlayFileConfig applies config-file/env settings that have no flag:
// chunk bounds and the consensus confidence table
func overlayFileConfig(cfg *model.Config) error {
	if viper.IsSet("chunking.token_budget") {
		cfg.Chunking.TokenBudget = viper.GetInt("chunking.token_budget")
	}
	if viper.IsSet("chunking.min_rows") {
		cfg.Chunking.MinRows = viper.GetInt("chunking.min_rows")
	}
	if viper.IsSet("chunking.max_rows") {
		cfg.Chunking.MaxRows = viper.GetInt("chunking.max_rows")
	}

	if raw := viper.GetStringMapString("consensus.levels"); len(raw) > 0 {
		levels := make(map[int]int, len(raw))
		for k, v := range raw {
			agreement, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("consensus.levels key %q is not a number", k)
			}
			pct, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("consensus.levels[%s] value %q is not a number", k, v)
			}
			levels[agreement] = pct
		}
		cfg.Consensus.Levels = levels
	}
	return nil
}

// loadTables reads every supplied source file
func loadTables() ([]*source.Table, error) {
	files := []struct {
		src  model.SourceType
		path string
	}{
		{model.SourceSearchKeywords, keywordsFile},
		{model.SourceChatLogs, chatsFile},
		{model.SourceCallTranscripts, callsFile},
		{model.SourceSpecForms, specsFile},
		{model.SourceRejectionFeedback, rejectionsFile},
	}

	var tables []*source.Table
	for _, f := range files {
		if f.path == "" {
			continue
		}
		t, err := source.Load(f.src, f.path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
