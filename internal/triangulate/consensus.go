package triangulate

import (
	"math"
	"sort"

	"github.com/skataria/specfuse/internal/model"
)

// BuildConsensus aggregates the canonical tables of every completed run into
// the final confidence-scored consensus table.
//
// Agreement counts distinct runs, not entries: a run that produced the same
// fact from several sources still counts once. Confidence comes from the
// configured lookup table when every configured run completed; when fewer
// runs completed, the table no longer describes the actual denominator and
// confidence falls back to round(100 * agreement / completed), with the
// report carrying both run counts so the reduced denominator is visible.
//
// The output ordering is deterministic: confidence descending, then
// attribute ascending, then value ascending. Empty input yields an empty
// (valid, reportable) consensus.
func BuildConsensus(runs [][]model.CanonicalSpecEntry, configuredRuns int, levels map[int]int) []model.ConsensusEntry {
	completed := len(runs)
	if completed == 0 {
		return []model.ConsensusEntry{}
	}

	type group struct {
		attribute string
		value     string
		runIDs    map[int]bool
	}

	groups := make(map[[2]string]*group)
	for _, run := range runs {
		for _, entry := range run {
			// Re-applied here so the same pure function gates equality at
			// both merge stages.
			attr := NormalizeAttribute(entry.Attribute)
			value := NormalizeValue(entry.Value)
			if attr == "" || value == "" {
				continue
			}

			key := [2]string{attr, value}
			g, ok := groups[key]
			if !ok {
				g = &group{attribute: attr, value: value, runIDs: make(map[int]bool)}
				groups[key] = g
			}
			g.runIDs[entry.RunID] = true
		}
	}

	entries := make([]model.ConsensusEntry, 0, len(groups))
	for _, g := range groups {
		agreement := len(g.runIDs)
		entries = append(entries, model.ConsensusEntry{
			Attribute:      g.attribute,
			Value:          g.value,
			AgreementCount: agreement,
			ConfidencePct:  confidenceFor(agreement, completed, configuredRuns, levels),
			Runs:           sortedRunIDs(g.runIDs),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConfidencePct != entries[j].ConfidencePct {
			return entries[i].ConfidencePct > entries[j].ConfidencePct
		}
		if entries[i].Attribute != entries[j].Attribute {
			return entries[i].Attribute < entries[j].Attribute
		}
		return entries[i].Value < entries[j].Value
	})

	return entries
}

// confidenceFor resolves the confidence percentage for one agreement count
func confidenceFor(agreement, completed, configured int, levels map[int]int) int {
	if completed == configured {
		if pct, ok := levels[agreement]; ok {
			return pct
		}
	}
	return int(math.Round(100 * float64(agreement) / float64(completed)))
}

func sortedRunIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
