package styleprofile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeKey turns a contact label into a filename-safe key: diacritics folded, anything other than
// letters, digits, "_" and "-" replaced by "_", lowercased, and trimmed of "_". When that leaves nothing,
// fallback is used with "+" removed and spaces turned into "_"; failing that the key is "unknown".
func SanitizeKey(label, fallback string) string {
	if k := sanitizeLabel(label); k != "" {
		return k
	}
	fb := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(fallback), "+", ""), " ", "_")
	if fb != "" {
		return fb
	}
	return "unknown"
}

func sanitizeLabel(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
