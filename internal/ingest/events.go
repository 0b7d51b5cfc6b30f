package ingest

import (
	"context"
	"time"

	"smart-shopping-list/internal/shopping"
)

// EventKind names what happened to a queue entry.
type EventKind string

const (
	EventCommitted             EventKind = "committed"
	EventMerged                EventKind = "merged"
	EventProposalOpened        EventKind = "proposal_opened"
	EventProposalResolved      EventKind = "proposal_resolved"
	EventDropped               EventKind = "dropped"
	EventNormalizationFallback EventKind = "normalization_fallback"
)

// Event is emitted to every Listener from the consumer goroutine.
type Event struct {
	Kind     EventKind
	ListID   string
	EntryID  string
	Item     *shopping.Item
	Proposal *Proposal
	Decision Decision
	Err      error
	At       time.Time
}

// Listener observes the engine. OnEvent runs on the consumer goroutine and
// must not call back into the engine synchronously.
type Listener interface {
	OnEvent(ctx context.Context, ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) OnEvent(ctx context.Context, ev Event) { f(ctx, ev) }
