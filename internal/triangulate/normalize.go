package triangulate

import (
	"strings"
	"unicode"
)

// Normalization is the shared pure function applied both at run-merge time
// and at consensus time, so equality of (attribute, value) keys is
// transitive and deterministic.
//
// Equivalence classes, in application order:
//   - Unicode lowercasing ("KVA" == "kva")
//   - '-', '_' and '/' fold to spaces ("three-phase" == "three phase")
//   - trailing '.,;:!?' stripped
//   - runs of whitespace collapse to one space
//   - a space between a digit and a following letter run is removed
//     ("30 kva" == "30kva")
//   - unit aliases fold to a canonical short form ("kilowatt" == "kw")
//
// Attribute names additionally fold through a semantic alias table
// ("power" == "power rating" == "capacity"). Anything the normalization
// treats as distinct (e.g. "30kva" vs "30kw") never merges.

// unitAliases maps spelled-out unit tokens to their canonical short form
var unitAliases = map[string]string{
	"kilovolt ampere":  "kva",
	"kilovolt amperes": "kva",
	"kilowatt":         "kw",
	"kilowatts":        "kw",
	"kilovolt":         "kv",
	"kilovolts":        "kv",
	"horsepower":       "hp",
	"litre":            "l",
	"litres":           "l",
	"liter":            "l",
	"liters":           "l",
	"millimetre":       "mm",
	"millimeter":       "mm",
	"kilogram":         "kg",
	"kilograms":        "kg",
	"ampere":           "a",
	"amperes":          "a",
	"amp":              "a",
	"amps":             "a",
	"volt":             "v",
	"volts":            "v",
	"watt":             "w",
	"watts":            "w",
}

// attributeAliases folds semantically equivalent attribute names to one
// canonical name. Mirrors how different sources label the same fact.
var attributeAliases = map[string]string{
	"power":               "capacity",
	"power rating":        "capacity",
	"rated power":         "capacity",
	"rated capacity":      "capacity",
	"phase type":          "phase",
	"phase configuration": "phase",
	"fuel type":           "fuel",
	"generator type":      "type",
	"product type":        "type",
	"brand name":          "brand",
	"make":                "brand",
}

// NormalizeAttribute returns the canonical form of an attribute name
func NormalizeAttribute(s string) string {
	norm := normalizeText(s)
	if canonical, ok := attributeAliases[norm]; ok {
		return canonical
	}
	return norm
}

// NormalizeValue returns the canonical form of an attribute value
func NormalizeValue(s string) string {
	norm := normalizeText(s)
	norm = foldUnits(norm)
	return joinDigitUnit(norm)
}

// normalizeText applies the casing, separator, punctuation and whitespace
// rules shared by attribute and value normalization
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '/':
			return ' '
		}
		return r
	}, s)
	s = strings.TrimRight(s, ".,;:!?")
	return strings.Join(strings.Fields(s), " ")
}

// foldUnits rewrites spelled-out unit tokens to their canonical short form
func foldUnits(s string) string {
	// Multi-word aliases first so "kilovolt ampere" doesn't fold as "kilovolt".
	s = strings.ReplaceAll(s, "kilovolt amperes", "kva")
	s = strings.ReplaceAll(s, "kilovolt ampere", "kva")

	fields := strings.Fields(s)
	for i, f := range fields {
		if canonical, ok := unitAliases[f]; ok {
			fields[i] = canonical
		}
	}
	return strings.Join(fields, " ")
}

// joinDigitUnit removes the space between a number and a following letter
// run, so "30 kva" and "30kva" compare equal
func joinDigitUnit(s string) string {
	fields := strings.Fields(s)
	var out []string
	for _, f := range fields {
		if len(out) > 0 && isLetters(f) && endsWithDigit(out[len(out)-1]) {
			out[len(out)-1] += f
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

func endsWithDigit(s string) bool {
	runes := []rune(s)
	return len(runes) > 0 && unicode.IsDigit(runes[len(runes)-1])
}
