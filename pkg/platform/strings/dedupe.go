// Package strings provides string manipulation utilities.
package strings

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison key of s: trimmed, inner whitespace collapsed,
// diacritics removed and case folded. Two strings are the same entry in a
// reference list when their Fold keys are equal.
//
// Example:
//
//	Fold("  São   Paulo ") == Fold("sao paulo") // true
func Fold(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// DedupeFold removes blank entries and entries whose Fold key was already seen.
// The first spelling wins and is kept trimmed. Order is preserved.
//
// Example:
//
//	DedupeFold([]string{" Campinas", "CAMPINAS", "São Paulo", "sao paulo", ""})
//	// Returns: []string{"Campinas", "São Paulo"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.Join(strings.Fields(v), " ")
		if trimmed == "" {
			continue
		}
		key := Fold(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}

// SortCollated sorts values in place using the collation rules of tag,
// ignoring case and diacritics. Ties keep their input order.
func SortCollated(values []string, tag language.Tag) {
	c := collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(values, func(i, j int) bool {
		return c.CompareString(values[i], values[j]) < 0
	})
}

// NormalizeList dedupes values with DedupeFold and sorts them with Brazilian
// Portuguese collation. The input slice is not modified.
func NormalizeList(values []string) []string {
	out := DedupeFold(append([]string(nil), values...))
	SortCollated(out, language.BrazilianPortuguese)
	return out
}
