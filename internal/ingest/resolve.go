package ingest

import (
	"context"
	"errors"
	"fmt"

	"smart-shopping-list/internal/matcher"
	"smart-shopping-list/internal/shopping"
)

// ResolveProposal settles the open proposal and lets the queue move again.
//
// accept merges the candidate into the current version of the existing item;
// if that item has since been removed or checked off the candidate is added
// as a new item instead. Declining with keepSeparate adds the candidate as a
// new item, declining without it discards the candidate.
//
// The proposal is closed even when the write fails; the failure is returned
// and also emitted as a dropped event. Only a done ctx leaves it open.
//
// Front-ends where several people can answer should use ResolveProposalID.
func (e *Engine) ResolveProposal(ctx context.Context, accept, keepSeparate bool) error {
	return e.resolve(ctx, "", accept, keepSeparate)
}

// ResolveProposalID settles the open proposal only if its id is proposalID.
// A decision on a proposal that was already resolved returns
// ErrProposalChanged and leaves the current proposal untouched.
func (e *Engine) ResolveProposalID(ctx context.Context, proposalID string, accept, keepSeparate bool) error {
	if proposalID == "" {
		return fmt.Errorf("proposal id required")
	}
	return e.resolve(ctx, proposalID, accept, keepSeparate)
}

func (e *Engine) resolve(ctx context.Context, proposalID string, accept, keepSeparate bool) error {
	e.step.Lock()
	defer e.step.Unlock()

	e.mu.Lock()
	p := e.proposal
	e.mu.Unlock()
	if p == nil {
		if proposalID != "" {
			return fmt.Errorf("proposal %s: %w", proposalID, ErrProposalChanged)
		}
		return ErrNoProposal
	}
	if proposalID != "" && p.ID != proposalID {
		return fmt.Errorf("proposal %s: %w", proposalID, ErrProposalChanged)
	}

	decision := DecisionFor(accept, keepSeparate)
	events, err := e.applyDecision(ctx, p, decision)
	if err != nil && ctx.Err() != nil {
		return err
	}

	e.mu.Lock()
	e.proposal = nil
	if len(e.queue) > 0 && e.queue[0].ID == p.EntryID {
		e.queue[0] = Entry{}
		e.queue = e.queue[1:]
	}
	e.mu.Unlock()

	e.log.Info("merge proposal resolved", "list_id", p.ListID, "entry_id", p.EntryID, "decision", string(decision))
	for _, ev := range events {
		e.emit(ctx, ev)
	}
	e.signal()
	return err
}

func (e *Engine) applyDecision(ctx context.Context, p *Proposal, decision Decision) ([]Event, error) {
	resolved := Event{Kind: EventProposalResolved, ListID: p.ListID, EntryID: p.EntryID, Proposal: p, Decision: decision}
	if decision == DecisionDiscard {
		return []Event{resolved}, nil
	}

	for attempt := 1; attempt <= e.writeRetries; attempt++ {
		list, err := e.store.Read(ctx, p.ListID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return []Event{resolved, e.dropped(p.entry, err)}, err
		}

		items := removeItem(list.CloneItems(), p.entry.ReplaceItemID)
		var ev Event
		if idx := indexOf(items, p.Existing.ID); decision == DecisionMerge && idx >= 0 && !items[idx].Checked {
			merged := matcher.Merge(items[idx], p.Candidate)
			items[idx] = merged
			ev = Event{Kind: EventMerged, Item: &merged}
		} else {
			item := p.Candidate
			items = append(items, item)
			ev = Event{Kind: EventCommitted, Item: &item}
		}

		if _, err := e.store.Write(ctx, p.ListID, items, list.Version); err != nil {
			if errors.Is(err, shopping.ErrStaleWrite) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			werr := writeError(p.ListID, err)
			return []Event{resolved, e.dropped(p.entry, werr)}, werr
		}

		ev.ListID, ev.EntryID = p.ListID, p.EntryID
		resolved.Item = ev.Item
		return []Event{resolved, ev}, nil
	}

	werr := writeError(p.ListID, shopping.ErrStaleWrite)
	return []Event{resolved, e.dropped(p.entry, werr)}, werr
}
