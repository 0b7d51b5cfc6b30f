package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	proposals []ingest.Proposal
	decisions [][2]bool
	drains    int
}

func (f *fakeQueue) Drain(ctx context.Context) error {
	f.drains++
	return nil
}

func (f *fakeQueue) Proposal() (ingest.Proposal, bool) {
	if len(f.proposals) == 0 {
		return ingest.Proposal{}, false
	}
	return f.proposals[0], true
}

func (f *fakeQueue) ResolveProposalID(ctx context.Context, proposalID string, accept, keepSeparate bool) error {
	if proposalID != f.proposals[0].ID {
		return ingest.ErrProposalChanged
	}
	f.decisions = append(f.decisions, [2]bool{accept, keepSeparate})
	f.proposals = f.proposals[1:]
	return nil
}

func (f *fakeQueue) Pending() bool { return false }

func milkProposal() ingest.Proposal {
	return ingest.Proposal{
		ID:        "p1",
		Existing:  shopping.Item{Name: "Milk", Qty: 1, Store: "Aldi"},
		Candidate: shopping.Item{Name: "Milk", Qty: 2},
		Preview:   shopping.Item{Name: "Milk", Qty: 3, Store: "Aldi"},
	}
}

func TestDrainInteractive(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		accept bool
		keep   bool
	}{
		{name: "merge", input: "m\n", accept: true},
		{name: "keep separate", input: "keep\n", keep: true},
		{name: "discard", input: "d\n"},
		{name: "retries on unknown answer", input: "what\nM\n", accept: true},
		{name: "eof discards", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{proposals: []ingest.Proposal{milkProposal()}}
			var out bytes.Buffer

			err := drainInteractive(context.Background(), q, strings.NewReader(tt.input), &out)
			require.NoError(t, err)

			require.Len(t, q.decisions, 1)
			assert.Equal(t, [2]bool{tt.accept, tt.keep}, q.decisions[0])
			assert.Equal(t, 2, q.drains)
			assert.Contains(t, out.String(), "Possible duplicate")
		})
	}
}

func TestDrainInteractive_NoProposal(t *testing.T) {
	q := &fakeQueue{}
	var out bytes.Buffer

	require.NoError(t, drainInteractive(context.Background(), q, strings.NewReader(""), &out))
	assert.Empty(t, q.decisions)
	assert.Empty(t, out.String())
}

func TestFormatItem(t *testing.T) {
	it := shopping.Item{Icon: "🍅", Name: "Tomatoes", Qty: 2, Unit: "kg", Notes: "ripe", Store: "SuperMart", Urgent: true}
	assert.Equal(t, "🍅 Tomatoes × 2 kg (ripe) @SuperMart !", formatItem(it))
}
