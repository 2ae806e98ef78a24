package triangulate

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/skataria/specfuse/internal/model"
)

func TestMergeRun_GroupsEquivalentCandidates(t *testing.T) {
	candidates := []model.CandidateSpec{
		{Attribute: "Power Rating", Value: "30 KVA", Source: model.SourceSearchKeywords, RunID: 1},
		{Attribute: "capacity", Value: "30kva", Source: model.SourceChatLogs, RunID: 1},
		{Attribute: "Capacity", Value: "30 kilovolt ampere", Source: model.SourceSpecForms, RunID: 1},
	}

	entries := MergeRun(candidates)
	if len(entries) != 1 {
		t.Fatalf("expected 1 merged entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Attribute != "capacity" || e.Value != "30kva" {
		t.Errorf("merged key = (%q, %q), want (capacity, 30kva)", e.Attribute, e.Value)
	}
	wantSources := []model.SourceType{
		model.SourceChatLogs,
		model.SourceSearchKeywords,
		model.SourceSpecForms,
	}
	if !reflect.DeepEqual(e.Sources, wantSources) {
		t.Errorf("sources = %v, want %v", e.Sources, wantSources)
	}
	if e.RunID != 1 {
		t.Errorf("run id = %d, want 1", e.RunID)
	}
}

func TestMergeRun_ConflictingValuesCoexist(t *testing.T) {
	candidates := []model.CandidateSpec{
		{Attribute: "fuel", Value: "diesel", Source: model.SourceSpecForms, RunID: 2},
		{Attribute: "fuel", Value: "petrol", Source: model.SourceChatLogs, RunID: 2},
	}

	entries := MergeRun(candidates)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for conflicting values, got %d", len(entries))
	}
	if entries[0].Value != "diesel" || entries[1].Value != "petrol" {
		t.Errorf("entries = %v, want diesel then petrol", entries)
	}
}

func TestMergeRun_DuplicateSourceCountsOnce(t *testing.T) {
	candidates := []model.CandidateSpec{
		{Attribute: "phase", Value: "three phase", Source: model.SourceCallTranscripts, RunID: 1},
		{Attribute: "phase", Value: "three-phase", Source: model.SourceCallTranscripts, RunID: 1},
	}

	entries := MergeRun(candidates)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].Sources) != 1 {
		t.Errorf("sources = %v, want one entry", entries[0].Sources)
	}
}

func TestMergeRun_SkipsEmptyKeys(t *testing.T) {
	candidates := []model.CandidateSpec{
		{Attribute: "", Value: "diesel", Source: model.SourceSpecForms, RunID: 1},
		{Attribute: "fuel", Value: "  ", Source: model.SourceSpecForms, RunID: 1},
		{Attribute: "fuel", Value: "diesel", Source: model.SourceSpecForms, RunID: 1},
	}

	entries := MergeRun(candidates)
	if len(entries) != 1 {
		t.Fatalf("expected empty keys skipped, got %d entries", len(entries))
	}
}

func TestMergeRun_OrderIndependent(t *testing.T) {
	candidates := []model.CandidateSpec{
		{Attribute: "capacity", Value: "30 kva", Source: model.SourceSearchKeywords, RunID: 1},
		{Attribute: "fuel", Value: "diesel", Source: model.SourceSpecForms, RunID: 1},
		{Attribute: "phase", Value: "three phase", Source: model.SourceCallTranscripts, RunID: 1},
		{Attribute: "Power", Value: "30KVA", Source: model.SourceChatLogs, RunID: 1},
		{Attribute: "fuel", Value: "petrol", Source: model.SourceRejectionFeedback, RunID: 1},
	}

	want := MergeRun(candidates)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]model.CandidateSpec, len(candidates))
		copy(shuffled, candidates)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := MergeRun(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: permuted input produced different output\ngot:  %v\nwant: %v", trial, got, want)
		}
	}
}

func TestMergeRun_EmptyInput(t *testing.T) {
	entries := MergeRun(nil)
	if len(entries) != 0 {
		t.Errorf("expected empty output, got %v", entries)
	}
}
