// Package slug derives URL-safe keys and search keys from human-entered text.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that carry no combining mark under NFD and would otherwise be dropped
var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
)

// Fold strips diacritics from s, turning "Čokoláda" into "Cokolada".
func Fold(s string) string {
	if s == "" {
		return s
	}
	// transformers keep state between calls, so build a fresh chain each time
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		return s
	}
	return folded
}

// Slug converts s to a lowercase, hyphen-separated URL key.
// Characters outside [a-z0-9] collapse into single hyphens and
// leading or trailing hyphens are removed.
func Slug(s string) string {
	return collapse(s, '-')
}

// Search normalizes free text for substring matching: diacritics are folded,
// letters lowercased and every run of non-alphanumerics becomes one space.
func Search(s string) string {
	return collapse(s, ' ')
}

func collapse(s string, sep byte) string {
	folded := strings.ToLower(Fold(s))

	var b strings.Builder
	b.Grow(len(folded))
	pending := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (sep == ' ' && unicode.IsLetter(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
