package oracle

import (
	"fmt"

	"github.com/skataria/specfuse/internal/model"
)

// sourceGuidance is the source-specific half of the extraction prompt: one
// strategy table keyed by source type instead of five near-duplicate prompts.
var sourceGuidance = map[model.SourceType]string{
	model.SourceSearchKeywords: `The data is internal search keywords buyers typed, one per line.
A trailing "(xN)" marks how many pageviews the keyword drew — treat higher counts as stronger signals.
Keywords are terse; expand obvious shorthand (e.g. "10kva gen" implies capacity 10 KVA).`,

	model.SourceChatLogs: `The data is buyer-seller chat messages, one message per line.
Messages are informal and may mix languages; extract only concrete product attributes the buyer asked about or stated.`,

	model.SourceCallTranscripts: `The data is automatic transcriptions of buyer calls, one utterance per line.
Transcription errors are common; only extract attributes you can read with confidence.`,

	model.SourceSpecForms: `The data is buyer-filled specification descriptions, one per line.
A trailing "(xN)" marks how often the description occurred. This is the most structured source; extract attribute-value pairs directly.`,

	model.SourceRejectionFeedback: `The data is free-text reasons buyers gave for rejecting offers, one per line.
A trailing "(xN)" marks how often the reason occurred. Rejections often reveal the attribute that actually mattered (wrong capacity, wrong phase, wrong brand).`,
}

// BuildPrompt constructs the extraction prompt for one chunk
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are a B2B product analyst extracting buyer specification preferences for "%s".

%s

Extract every concrete product specification mentioned in the data below.

Rules:
- Only extract tangible, measurable product attributes (capacity, phase, fuel, material, brand, dimensions).
- Use the exact values present in the data; never invent values.
- Skip generic descriptors ("good quality", "best price") and anything that merely restates the product name.
- The evidence column must quote the line the value came from, trimmed to at most 15 words.

Respond with ONLY a table in exactly this format, one row per extracted fact:

| Attribute | Value | Evidence |
| capacity | 30 KVA | "need 30 kva silent generator urgent" |

If the data contains no product specifications, respond with the header row only.

<data source="%s">
%s</data>`, req.Product, sourceGuidance[req.Source], req.Source.DisplayName(), req.Text)
}
