package model

// SourceType identifies one of the five buyer-signal data sources
type SourceType string

const (
	SourceSearchKeywords    SourceType = "search_keywords"    // Internal search keywords with pageviews
	SourceChatLogs          SourceType = "chat_logs"          // Conversational logs (semi-structured payloads)
	SourceCallTranscripts   SourceType = "call_transcripts"   // Transcribed sales/support calls
	SourceSpecForms         SourceType = "spec_forms"         // Buyer-filled specification forms
	SourceRejectionFeedback SourceType = "rejection_feedback" // Free-text rejection reasons
)

// AllSourceTypes lists every supported source in canonical order
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceSearchKeywords,
		SourceChatLogs,
		SourceCallTranscripts,
		SourceSpecForms,
		SourceRejectionFeedback,
	}
}

// DisplayName returns a human-readable source name for reports
func (s SourceType) DisplayName() string {
	switch s {
	case SourceSearchKeywords:
		return "Search Keywords"
	case SourceChatLogs:
		return "Chat Logs"
	case SourceCallTranscripts:
		return "Call Transcripts"
	case SourceSpecForms:
		return "Specification Forms"
	case SourceRejectionFeedback:
		return "Rejection Feedback"
	default:
		return string(s)
	}
}

// CandidateSpec is one extracted fact from one oracle call against one chunk.
// Immutable after creation.
type CandidateSpec struct {
	Attribute string     `json:"attribute"`          // e.g. "capacity"
	Value     string     `json:"value"`              // e.g. "30 KVA"
	Source    SourceType `json:"source"`             // Source the chunk came from
	Evidence  string     `json:"evidence,omitempty"` // Supporting text from the chunk
	RunID     int        `json:"run_id"`             // 1-based run that produced it
}

// CanonicalSpecEntry is the merge of all CandidateSpecs within one run that
// normalize to the same (attribute, value) key. Sources is never empty and
// never spans more than one run.
type CanonicalSpecEntry struct {
	Attribute string       `json:"attribute"` // Normalized attribute name
	Value     string       `json:"value"`     // Normalized resolved value
	Sources   []SourceType `json:"sources"`   // Distinct contributing sources, sorted
	RunID     int          `json:"run_id"`
}

// ConsensusEntry is the cross-run merge of equivalent CanonicalSpecEntry
// values, with a confidence derived from how many runs agreed.
type ConsensusEntry struct {
	Attribute      string `json:"attribute"`
	Value          string `json:"value"`
	AgreementCount int    `json:"agreement_count"` // Distinct runs that produced the fact (1..N)
	ConfidencePct  int    `json:"confidence_pct"`  // From the configured lookup table
	Runs           []int  `json:"runs"`            // Contributing run IDs, sorted
}
