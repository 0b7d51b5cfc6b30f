// Package ingest serializes every mutation of shopping list items through a
// single FIFO queue. Each entry is normalized, matched against the current
// list and then committed, merged, or parked as a proposal that a person must
// resolve before the queue moves again.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/normalizer"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"

	"github.com/google/uuid"
)

const defaultWriteRetries = 3

// UsageRecorder receives the token usage of normalization calls.
type UsageRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Entry is one pending add or update.
type Entry struct {
	ID                string
	ListID            string
	Draft             shopping.Draft
	SkipNormalization bool
	// ReplaceItemID is set for updates: that item is removed before matching.
	ReplaceItemID string
	EnqueuedAt    time.Time
}

// Options configure an Engine. Zero values are usable.
type Options struct {
	WriteRetries int
	Logger       *logger.Logger
	Usage        UsageRecorder
	Listeners    []Listener
}

// Engine owns the ingestion queue and the single merge proposal slot.
type Engine struct {
	store        shopping.Store
	normalizer   normalizer.Normalizer
	usage        UsageRecorder
	log          *logger.Logger
	listeners    []Listener
	writeRetries int

	newID func() string
	now   func() time.Time

	// step serializes drain steps and proposal resolution.
	step sync.Mutex

	mu       sync.Mutex
	queue    []Entry
	proposal *Proposal
	closed   bool

	wake chan struct{}
}

// New creates an engine. A nil normalizer stores every item with the
// fallback record.
func New(store shopping.Store, norm normalizer.Normalizer, opts Options) *Engine {
	if opts.WriteRetries <= 0 {
		opts.WriteRetries = defaultWriteRetries
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Engine{
		store:        store,
		normalizer:   norm,
		usage:        opts.Usage,
		log:          opts.Logger.With("component", "ingest"),
		listeners:    opts.Listeners,
		writeRetries: opts.WriteRetries,
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
		wake:         make(chan struct{}, 1),
	}
}

// AddListener registers l for future events.
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// EnqueueAdd queues draft for listID and returns the entry id. The outcome is
// only observable through events, proposals and later list reads.
func (e *Engine) EnqueueAdd(ctx context.Context, listID string, draft shopping.Draft, skipNormalization bool) (string, error) {
	return e.enqueue(ctx, Entry{ListID: listID, Draft: draft, SkipNormalization: skipNormalization})
}

// EnqueueUpdate queues a replacement of existingItemID by draft. The old item
// is removed first and draft is then matched like a fresh add, so an edited
// item may merge into a different one.
func (e *Engine) EnqueueUpdate(ctx context.Context, listID, existingItemID string, draft shopping.Draft) (string, error) {
	if strings.TrimSpace(existingItemID) == "" {
		return "", fmt.Errorf("existing item id cannot be empty")
	}
	return e.enqueue(ctx, Entry{ListID: listID, Draft: draft, ReplaceItemID: existingItemID})
}

func (e *Engine) enqueue(ctx context.Context, entry Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(entry.ListID) == "" {
		return "", fmt.Errorf("list id cannot be empty")
	}
	if err := entry.Draft.Validate(); err != nil {
		return "", fmt.Errorf("invalid item: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	entry.ID = e.newID()
	entry.EnqueuedAt = e.now()
	e.queue = append(e.queue, entry)
	e.mu.Unlock()

	e.log.Debug("entry enqueued", "entry_id", entry.ID, "list_id", entry.ListID, "name", entry.Draft.Name)
	e.signal()
	return entry.ID, nil
}

// Proposal returns a copy of the open proposal, if any.
func (e *Engine) Proposal() (Proposal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proposal == nil {
		return Proposal{}, false
	}
	return *e.proposal, true
}

// Pending reports whether entries are waiting, including one held by a proposal.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue) > 0
}

// Close rejects further enqueues. Entries already queued can still be drained.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.signal()
}

// Drain processes entries until the queue is empty or a proposal is open.
// It returns early only when ctx is done.
func (e *Engine) Drain(ctx context.Context) error {
	for {
		progressed, err := e.drainOnce(ctx)
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// Run drains whenever work arrives until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("ingestion engine started")
	for {
		if err := e.Drain(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
			e.log.Info("ingestion engine stopped")
			return nil
		case <-e.wake:
		}
	}
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.mu.Lock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range listeners {
		l.OnEvent(ctx, ev)
	}
}
