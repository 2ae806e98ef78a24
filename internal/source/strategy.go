package source

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/skataria/specfuse/internal/model"
)

// Strategy is the source-specific column mapping and preprocessing step.
// One polymorphic table keyed by source type instead of five near-duplicate
// loaders: the sources differ only in which column carries the text, which
// (if any) carries a frequency weight, and how the raw cell is cleaned.
type Strategy struct {
	DataColumn   string
	WeightColumn string              // "" when the source has no frequency column
	Clean        func(string) string // nil means use the cell verbatim
}

var strategies = map[model.SourceType]Strategy{
	model.SourceSearchKeywords: {
		DataColumn:   "keyword",
		WeightColumn: "pageviews",
	},
	model.SourceChatLogs: {
		DataColumn: "message_payload",
		Clean:      flattenPayload,
	},
	model.SourceCallTranscripts: {
		DataColumn: "transcribed_text",
	},
	model.SourceSpecForms: {
		DataColumn: "spec_description",
	},
	model.SourceRejectionFeedback: {
		DataColumn: "rejection_text",
	},
}

func strategyFor(src model.SourceType) (Strategy, bool) {
	s, ok := strategies[src]
	return s, ok
}

// flattenPayload extracts readable text from a semi-structured chat payload.
// Payloads are usually JSON objects or arrays whose string leaves hold the
// message text; anything that fails to parse is kept as-is.
func flattenPayload(cell string) string {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[' && trimmed[0] != '"') {
		return trimmed
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return trimmed
	}

	var parts []string
	collectStrings(payload, &parts)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// collectStrings walks a decoded JSON value and gathers string leaves in
// document order
func collectStrings(v interface{}, out *[]string) {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			*out = append(*out, s)
		}
	case []interface{}:
		for _, item := range val {
			collectStrings(item, out)
		}
	case map[string]interface{}:
		// Prefer well-known text keys first so the message body leads.
		for _, key := range []string{"text", "message", "body", "content"} {
			if inner, ok := val[key]; ok {
				collectStrings(inner, out)
				delete(val, key)
			}
		}
		// Remaining keys in sorted order so extraction is deterministic.
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			collectStrings(val[key], out)
		}
	}
}
