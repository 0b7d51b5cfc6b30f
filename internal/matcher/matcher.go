// Package matcher decides whether an incoming item should merge into one
// already on the list.
package matcher

import (
	"strings"

	"smart-shopping-list/internal/shopping"
)

// Kind is the outcome of classifying a candidate against a list.
type Kind int

const (
	// NoMatch means the candidate becomes a new item.
	NoMatch Kind = iota
	// PerfectMatch means the candidate merges silently.
	PerfectMatch
	// AmbiguousMatch means a user has to confirm the merge.
	AmbiguousMatch
)

func (k Kind) String() string {
	switch k {
	case PerfectMatch:
		return "perfect"
	case AmbiguousMatch:
		return "ambiguous"
	default:
		return "none"
	}
}

// Result describes the match found for a candidate. Existing and Index are
// only set when Kind is not NoMatch.
type Result struct {
	Kind     Kind
	Existing *shopping.Item
	Index    int
}

// Classify compares candidate with every unchecked item. Canonical name, unit
// and notes must be equal; the store then decides between a perfect match
// (same store), an ambiguous one (store on one side only) or no match
// (two different stores). The first perfect match wins over any ambiguous one.
func Classify(candidate shopping.Item, items []shopping.Item) Result {
	key := shopping.CanonicalKey(candidate.CanonicalName)
	ambiguous := -1

	for i := range items {
		existing := items[i]
		if existing.Checked || shopping.CanonicalKey(existing.CanonicalName) != key {
			continue
		}
		if !shopping.TrimmedEqual(existing.Unit, candidate.Unit) || !shopping.TrimmedEqual(existing.Notes, candidate.Notes) {
			continue
		}
		switch storeMatch(existing.Store, candidate.Store) {
		case PerfectMatch:
			return Result{Kind: PerfectMatch, Existing: &items[i], Index: i}
		case AmbiguousMatch:
			if ambiguous < 0 {
				ambiguous = i
			}
		}
	}

	if ambiguous >= 0 {
		return Result{Kind: AmbiguousMatch, Existing: &items[ambiguous], Index: ambiguous}
	}
	return Result{Kind: NoMatch, Index: -1}
}

func storeMatch(a, b string) Kind {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == b:
		return PerfectMatch
	case a == "" || b == "":
		return AmbiguousMatch
	default:
		return NoMatch
	}
}

// Merge folds candidate into existing. Identity and presentation stay with the
// existing item; quantities add up and flags are OR-ed.
func Merge(existing, candidate shopping.Item) shopping.Item {
	merged := existing
	merged.Qty = existing.Qty + candidate.Qty
	merged.Urgent = existing.Urgent || candidate.Urgent
	merged.GF = existing.GF || candidate.GF
	merged.Notes = joinNotes(existing.Notes, candidate.Notes)
	if strings.TrimSpace(existing.Store) == "" {
		merged.Store = strings.TrimSpace(candidate.Store)
	}
	return merged
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + ", " + b
	}
}
