package extract

import (
	"strings"
	"unicode"
)

var punctuationReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	" ", " ",
	"…", "...",
)

// cleanText strips leading emoji/flag clusters and control characters and
// normalizes mis-encoded punctuation so the pattern cascade sees plain text.
func cleanText(raw string) string {
	normalized := punctuationReplacer.Replace(raw)

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if isPictographic(r) {
			// Keep a separator so adjacent words do not fuse.
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(b.String())
	cleaned = strings.TrimLeft(cleaned, "-–—|:•* \t")
	return strings.Join(strings.Fields(cleaned), " ")
}

// isPictographic covers emoji, flags and dingbats commonly prepended to
// source posts ("🚨🇪🇸 Done deal!").
func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji, symbols, flags
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0xFE0F || r == 0x200D: // variation selector, zero-width joiner
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	default:
		return false
	}
}
