package chunk

import (
	"iter"
	"strconv"
	"strings"

	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/source"
)

// Chunk is an ordered slice of one source's rows sized to fit the oracle's
// input budget. Immutable once yielded.
type Chunk struct {
	Source    model.SourceType
	Index     int // 0-based position in the chunk sequence
	Rows      []source.Row
	EstTokens int // Cumulative density estimate for the rows
}

// Text renders the chunk's rows as the oracle input block, one row per line.
// Weighted rows carry their frequency so the oracle can see signal strength.
func (c Chunk) Text() string {
	var b strings.Builder
	for _, row := range c.Rows {
		b.WriteString(row.Text)
		if row.Weight > 1 {
			b.WriteString(" (x")
			b.WriteString(strconv.Itoa(row.Weight))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Chunker partitions source tables into size-bounded chunks. Boundaries
// depend only on the cumulative density estimate and the row-count bounds,
// never on content values, so the partition is deterministic.
type Chunker struct {
	tokenBudget int
	minRows     int
	maxRows     int
}

// NewChunker creates a chunker from the configured bounds
func NewChunker(cfg model.ChunkingConfig) *Chunker {
	return &Chunker{
		tokenBudget: cfg.TokenBudget,
		minRows:     cfg.MinRows,
		maxRows:     cfg.MaxRows,
	}
}

// Chunks returns a lazy, restartable sequence of chunks covering every row
// of the table exactly once, in original order. Ranging over the sequence
// again restarts it from the first chunk. An empty table yields nothing.
func (c *Chunker) Chunks(t *source.Table) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		var (
			rows  []source.Row
			est   int
			index int
		)

		flush := func() bool {
			if len(rows) == 0 {
				return true
			}
			ok := yield(Chunk{Source: t.Source, Index: index, Rows: rows, EstTokens: est})
			index++
			rows = nil
			est = 0
			return ok
		}

		for _, row := range t.Rows {
			rows = append(rows, row)
			est += estimateTokens(row.Text)

			// A chunk closes on the hard row ceiling, or on density once
			// it holds at least the minimum row count.
			if len(rows) >= c.maxRows || (est >= c.tokenBudget && len(rows) >= c.minRows) {
				if !flush() {
					return
				}
			}
		}
		flush()
	}
}

// estimateTokens is the density estimator: a bytes/4 heuristic, floored at
// one token per row
func estimateTokens(text string) int {
	n := (len(text) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}
