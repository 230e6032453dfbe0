package ir

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Homogenize reduces a table or column name to its matching key:
// NFC-normalized, case-folded, with underscores removed.
// "last_name", "LastName" and "LASTNAME" share the key "lastname".
func Homogenize(name string) string {
	// cases.Caser is stateful, so a fresh one is built per call.
	return cases.Fold().String(norm.NFC.String(strings.ReplaceAll(name, "_", "")))
}

// SameName reports whether two names match after homogenization.
func SameName(a, b string) bool {
	return Homogenize(a) == Homogenize(b)
}
