package oracle

import "strings"

// ParseCandidates parses the oracle's pipe-delimited table response into
// candidate triples. Tolerant by design: header rows, separator rows and
// prose around the table are skipped, and a row missing the evidence cell
// still yields a candidate. A response with no usable rows parses to an
// empty list, not an error.
func ParseCandidates(response string) []Candidate {
	var candidates []Candidate

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.Count(line, "|") < 2 {
			continue
		}
		if strings.HasPrefix(line, "|--") || strings.HasPrefix(line, "|-") || strings.HasPrefix(line, "| ---") {
			continue
		}

		cleaned := strings.TrimPrefix(line, "|")
		cleaned = strings.TrimSuffix(cleaned, "|")

		parts := strings.Split(cleaned, "|")
		for i := range parts {
			parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
		}

		if len(parts) < 2 {
			continue
		}

		attribute := parts[0]
		value := parts[1]
		if attribute == "" || value == "" {
			continue
		}
		// Skip the header row
		if strings.EqualFold(attribute, "attribute") && strings.EqualFold(value, "value") {
			continue
		}
		if isSeparator(attribute) || isSeparator(value) {
			continue
		}

		candidate := Candidate{Attribute: attribute, Value: value}
		if len(parts) >= 3 {
			candidate.Evidence = parts[2]
		}
		candidates = append(candidates, candidate)
	}

	return candidates
}

// isSeparator reports whether a cell is a markdown separator run like "---"
func isSeparator(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '-' && r != ':' && r != ' ' {
			return false
		}
	}
	return true
}
