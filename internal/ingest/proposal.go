package ingest

import (
	"time"

	"smart-shopping-list/internal/shopping"
)

// Decision is how an open proposal was resolved.
type Decision string

const (
	DecisionMerge        Decision = "merge"
	DecisionKeepSeparate Decision = "keep_separate"
	DecisionDiscard      Decision = "discard"
)

// DecisionFor maps the accept/keepSeparate pair of ResolveProposal.
func DecisionFor(accept, keepSeparate bool) Decision {
	switch {
	case accept:
		return DecisionMerge
	case keepSeparate:
		return DecisionKeepSeparate
	default:
		return DecisionDiscard
	}
}

// Proposal is an ambiguous match waiting for a human. While one is open the
// queue does not advance, for any list.
type Proposal struct {
	ID        string
	EntryID   string
	ListID    string
	Existing  shopping.Item
	Candidate shopping.Item
	// Preview is what the list item would look like after a merge.
	Preview  shopping.Item
	OpenedAt time.Time

	entry Entry
}
