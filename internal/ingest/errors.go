package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProposal is returned by ResolveProposal when nothing awaits a decision.
	ErrNoProposal = errors.New("no merge proposal is open")
	// ErrProposalChanged is returned by ResolveProposalID when the proposal
	// the caller answered is no longer the open one.
	ErrProposalChanged = errors.New("merge proposal was already resolved")
	// ErrClosed is returned when enqueuing into a closed engine.
	ErrClosed = errors.New("ingestion engine is closed")
)

// PersistenceWriteError reports that a list could not be written. The entry
// that caused the write is dropped; the next read resynchronizes.
type PersistenceWriteError struct {
	ListID string
	Err    error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("failed to write list %s: %v", e.ListID, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}
