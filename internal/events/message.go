// Package events carries ingestion engine events to logs and to other
// processes.
package events

import (
	"time"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/shopping"
)

// Message is the wire form of an ingest.Event.
type Message struct {
	Kind     string         `json:"kind"`
	ListID   string         `json:"listId"`
	EntryID  string         `json:"entryId"`
	Item     *shopping.Item `json:"item,omitempty"`
	Proposal *ProposalView  `json:"proposal,omitempty"`
	Decision string         `json:"decision,omitempty"`
	Error    string         `json:"error,omitempty"`
	At       time.Time      `json:"at"`
}

// ProposalView is what a front-end needs to render a merge confirmation.
type ProposalView struct {
	ID        string        `json:"id"`
	ListID    string        `json:"listId"`
	Existing  shopping.Item `json:"existing"`
	Candidate shopping.Item `json:"candidate"`
	Preview   shopping.Item `json:"preview"`
	OpenedAt  time.Time     `json:"openedAt"`
}

// NewProposalView converts an engine proposal.
func NewProposalView(p ingest.Proposal) *ProposalView {
	return &ProposalView{
		ID:        p.ID,
		ListID:    p.ListID,
		Existing:  p.Existing,
		Candidate: p.Candidate,
		Preview:   p.Preview,
		OpenedAt:  p.OpenedAt,
	}
}

// FromEvent converts an engine event into a Message.
func FromEvent(ev ingest.Event) Message {
	m := Message{
		Kind:     string(ev.Kind),
		ListID:   ev.ListID,
		EntryID:  ev.EntryID,
		Item:     ev.Item,
		Decision: string(ev.Decision),
		At:       ev.At,
	}
	if ev.Proposal != nil {
		m.Proposal = NewProposalView(*ev.Proposal)
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}
