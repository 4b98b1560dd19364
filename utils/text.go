package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseSpaces trims s and collapses internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// FoldAccents strips combining marks, so "JESÚS MARÍA" becomes "JESUS MARIA"
// and "BREÑA" becomes "BRENA".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// RepairMojibake undoes the common UTF-8-read-as-Latin-1 corruption
// ("BREÃ‘A" -> "BREÑA", "mÂ²" -> "m²"). Text that is not corrupted is
// returned unchanged.
func RepairMojibake(s string) string {
	if !strings.ContainsAny(s, "ÃÂ") {
		return s
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		raw, err := cm.NewEncoder().String(s)
		if err != nil {
			continue
		}
		if raw != s && utf8.ValidString(raw) {
			return raw
		}
	}
	return s
}

// NormalizeLabel is the comparison form used for vocabulary lookups: repaired,
// upper-cased and whitespace-collapsed.
func NormalizeLabel(s string) string {
	return CollapseSpaces(strings.ToUpper(RepairMojibake(s)))
}
