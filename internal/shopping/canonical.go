package shopping

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalKey is the form canonical names are stored and compared in.
// Whitespace is trimmed and collapsed and the string is NFC normalized so
// that visually identical names from different keyboards compare equal.
// Case is preserved: matching on the key is case-sensitive.
func CanonicalKey(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// TrimmedEqual compares two free-text qualifiers (unit, notes, store).
func TrimmedEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
