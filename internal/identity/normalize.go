package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Legal-suffix tokens that vary across sources for the same club
// ("Valencia CF", "Valencia"). Dropped for matching, never for display.
var clubSuffixTokens = map[string]struct{}{
	"fc":  {},
	"afc": {},
	"cf":  {},
	"sc":  {},
	"cd":  {},
	"ac":  {},
	"ssc": {},
	"bk":  {},
	"sk":  {},
	"if":  {},
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, folds diacritics and collapses whitespace.
// "Rúben  Días" and "ruben dias" normalize identically.
func NormalizeName(raw string) string {
	folded, _, err := transform.String(diacriticFolder, strings.TrimSpace(raw))
	if err != nil {
		folded = strings.TrimSpace(raw)
	}
	lowered := strings.ToLower(folded)

	fields := strings.Fields(lowered)
	cleaned := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.Trim(field, ".,;:!?'\"()[]")
		if field == "" {
			continue
		}
		cleaned = append(cleaned, field)
	}
	return strings.Join(cleaned, " ")
}

// NormalizeClub applies NormalizeName and strips legal-suffix tokens.
func NormalizeClub(raw string) string {
	normalized := NormalizeName(raw)
	if normalized == "" {
		return ""
	}

	fields := strings.Fields(normalized)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, isSuffix := clubSuffixTokens[field]; isSuffix {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		// Club name consisted entirely of suffix tokens; keep it as-is.
		return normalized
	}
	return strings.Join(kept, " ")
}
