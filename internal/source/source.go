package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/skataria/specfuse/internal/model"
)

// Row is one record from a source table, reduced to the text the oracle
// sees plus an optional frequency weight (pageviews, occurrence counts).
type Row struct {
	Text   string
	Weight int
}

// Table is one source's ordered row sequence. Rows are never mutated after
// loading.
type Table struct {
	Source model.SourceType
	Rows   []Row
}

// Load reads a source CSV into a Table using that source's column mapping
// and preprocessing strategy. An empty file (header only) yields an empty
// table, not an error.
func Load(src model.SourceType, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(src, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return t, nil
}

// Read parses CSV content for the given source type
func Read(src model.SourceType, r io.Reader) (*Table, error) {
	strat, ok := strategyFor(src)
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s", src)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{Source: src}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dataIdx := columnIndex(header, strat.DataColumn)
	if dataIdx < 0 {
		return nil, fmt.Errorf("missing column %q", strat.DataColumn)
	}
	weightIdx := -1
	if strat.WeightColumn != "" {
		weightIdx = columnIndex(header, strat.WeightColumn)
	}

	t := &Table{Source: src}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if dataIdx >= len(record) {
			continue
		}

		text := strings.TrimSpace(record[dataIdx])
		if strat.Clean != nil {
			text = strat.Clean(text)
		}
		if text == "" {
			continue
		}

		weight := 1
		if weightIdx >= 0 && weightIdx < len(record) {
			if w, err := strconv.Atoi(strings.TrimSpace(record[weightIdx])); err == nil && w > 0 {
				weight = w
			}
		}

		t.Rows = append(t.Rows, Row{Text: text, Weight: weight})
	}

	return t, nil
}

// columnIndex finds a header column by case-insensitive name
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
