package ingest

import (
	"context"
	"errors"

	"smart-shopping-list/internal/matcher"
	"smart-shopping-list/internal/normalizer"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"
)

// outcome is what one drain step produced. Events are emitted after the
// queue state has been updated.
type outcome struct {
	events   []Event
	proposal *Proposal
}

// drainOnce processes the head entry. It reports false when there was nothing
// to do. A non-nil error means ctx ended and the entry is still queued.
func (e *Engine) drainOnce(ctx context.Context) (bool, error) {
	e.step.Lock()
	defer e.step.Unlock()

	e.mu.Lock()
	if e.proposal != nil || len(e.queue) == 0 {
		e.mu.Unlock()
		return false, nil
	}
	entry := e.queue[0]
	e.mu.Unlock()

	out, err := e.process(ctx, entry)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	if out.proposal != nil {
		e.proposal = out.proposal
	} else {
		e.queue[0] = Entry{}
		e.queue = e.queue[1:]
	}
	e.mu.Unlock()

	for _, ev := range out.events {
		e.emit(ctx, ev)
	}
	return true, nil
}

func (e *Engine) process(ctx context.Context, entry Entry) (outcome, error) {
	var out outcome

	candidate, normErr := e.prepare(ctx, entry)
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}
	if normErr != nil {
		e.log.Warn("normalization failed, using fallback", "entry_id", entry.ID, "name", entry.Draft.Name, "error", normErr)
		item := candidate
		out.events = append(out.events, Event{
			Kind:    EventNormalizationFallback,
			ListID:  entry.ListID,
			EntryID: entry.ID,
			Item:    &item,
			Err:     normErr,
		})
	}

	for attempt := 1; attempt <= e.writeRetries; attempt++ {
		list, err := e.store.Read(ctx, entry.ListID)
		if err != nil {
			if ctx.Err() != nil {
				return outcome{}, ctx.Err()
			}
			out.events = append(out.events, e.dropped(entry, err))
			return out, nil
		}

		items := removeItem(list.CloneItems(), entry.ReplaceItemID)
		removed := len(items) != len(list.Items)
		match := matcher.Classify(candidate, items)

		var ev Event
		var proposal *Proposal
		switch match.Kind {
		case matcher.PerfectMatch:
			merged := matcher.Merge(*match.Existing, candidate)
			items[match.Index] = merged
			ev = Event{Kind: EventMerged, Item: &merged}
		case matcher.AmbiguousMatch:
			proposal = e.newProposal(entry, *match.Existing, candidate)
			ev = Event{Kind: EventProposalOpened, Proposal: proposal}
			if !removed {
				// Nothing to write until someone decides.
				ev.ListID, ev.EntryID = entry.ListID, entry.ID
				out.events = append(out.events, ev)
				out.proposal = proposal
				e.log.Info("merge proposal opened", "list_id", entry.ListID, "entry_id", entry.ID, "existing_id", proposal.Existing.ID)
				return out, nil
			}
		default:
			item := candidate
			items = append(items, item)
			ev = Event{Kind: EventCommitted, Item: &item}
		}

		if _, err := e.store.Write(ctx, entry.ListID, items, list.Version); err != nil {
			if errors.Is(err, shopping.ErrStaleWrite) {
				e.log.Debug("stale write, retrying", "list_id", entry.ListID, "entry_id", entry.ID, "attempt", attempt)
				continue
			}
			if ctx.Err() != nil {
				return outcome{}, ctx.Err()
			}
			out.events = append(out.events, e.dropped(entry, writeError(entry.ListID, err)))
			return out, nil
		}

		ev.ListID, ev.EntryID = entry.ListID, entry.ID
		out.events = append(out.events, ev)
		out.proposal = proposal
		e.log.Info("entry processed", "list_id", entry.ListID, "entry_id", entry.ID, "outcome", string(ev.Kind))
		return out, nil
	}

	out.events = append(out.events, e.dropped(entry, writeError(entry.ListID, shopping.ErrStaleWrite)))
	return out, nil
}

// prepare builds the candidate item. The returned error is the normalization
// failure that caused the fallback record to be used, if any.
func (e *Engine) prepare(ctx context.Context, entry Entry) (shopping.Item, error) {
	id := e.newID()
	d := entry.Draft
	if entry.SkipNormalization {
		return d.ToItem(id), nil
	}

	req := normalizer.NormalizeRequest{Name: d.Name, Qty: d.Qty, Unit: d.Unit}
	var (
		res normalizer.Result
		err error
	)
	if e.normalizer == nil {
		res = normalizer.Fallback(req)
	} else {
		res, err = e.normalizer.Normalize(ctx, req)
		e.recordUsage(res.Meta)
		if err != nil {
			res = normalizer.Fallback(req)
		}
	}

	d.Name = res.Name
	d.CanonicalName = res.CanonicalName
	d.Category = res.Category
	d.Icon = res.Icon
	d.Qty = res.Qty
	d.Unit = res.Unit
	return d.ToItem(id), err
}

func (e *Engine) recordUsage(meta shared.AgentMeta) {
	if e.usage == nil || meta.Usage.IsZero() {
		return
	}
	if err := e.usage.RecordMeta(meta); err != nil {
		e.log.Warn("failed to record normalizer usage", "error", err)
	}
}

func (e *Engine) newProposal(entry Entry, existing, candidate shopping.Item) *Proposal {
	return &Proposal{
		ID:        e.newID(),
		EntryID:   entry.ID,
		ListID:    entry.ListID,
		Existing:  existing,
		Candidate: candidate,
		Preview:   matcher.Merge(existing, candidate),
		OpenedAt:  e.now(),
		entry:     entry,
	}
}

func (e *Engine) dropped(entry Entry, err error) Event {
	e.log.Warn("entry dropped", "list_id", entry.ListID, "entry_id", entry.ID, "name", entry.Draft.Name, "error", err)
	return Event{Kind: EventDropped, ListID: entry.ListID, EntryID: entry.ID, Err: err}
}

func writeError(listID string, err error) error {
	if errors.Is(err, shopping.ErrListNotFound) {
		return err
	}
	return &PersistenceWriteError{ListID: listID, Err: err}
}

func removeItem(items []shopping.Item, id string) []shopping.Item {
	if id == "" {
		return items
	}
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func indexOf(items []shopping.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
