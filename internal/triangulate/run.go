package triangulate

import (
	"sort"

	"github.com/skataria/specfuse/internal/model"
)

// MergeRun reduces one run's combined candidate set to its canonical
// specification table. Candidates that normalize to the same
// (attribute, value) key merge into one entry recording the distinct
// sources that agreed; conflicting values for the same attribute coexist
// as separate entries. The reduction is pure and order-independent:
// permuting the input yields an identical output.
func MergeRun(candidates []model.CandidateSpec) []model.CanonicalSpecEntry {
	type group struct {
		attribute string
		value     string
		sources   map[model.SourceType]bool
		runID     int
	}

	groups := make(map[[2]string]*group)
	for _, c := range candidates {
		attr := NormalizeAttribute(c.Attribute)
		value := NormalizeValue(c.Value)
		if attr == "" || value == "" {
			continue
		}

		key := [2]string{attr, value}
		g, ok := groups[key]
		if !ok {
			g = &group{
				attribute: attr,
				value:     value,
				sources:   make(map[model.SourceType]bool),
				runID:     c.RunID,
			}
			groups[key] = g
		}
		g.sources[c.Source] = true
	}

	entries := make([]model.CanonicalSpecEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, model.CanonicalSpecEntry{
			Attribute: g.attribute,
			Value:     g.value,
			Sources:   sortedSources(g.sources),
			RunID:     g.runID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Attribute != entries[j].Attribute {
			return entries[i].Attribute < entries[j].Attribute
		}
		return entries[i].Value < entries[j].Value
	})

	return entries
}

// sortedSources converts a source set to a canonically ordered slice
func sortedSources(set map[model.SourceType]bool) []model.SourceType {
	sources := make([]model.SourceType, 0, len(set))
	for s := range set {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
