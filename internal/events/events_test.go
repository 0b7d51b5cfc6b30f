package events

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &ingest.Proposal{
		ID:       "p1",
		ListID:   "l1",
		Existing: shopping.Item{ID: "a", Name: "Milk", Store: "SuperMart", Qty: 1},
		Preview:  shopping.Item{ID: "a", Name: "Milk", Store: "SuperMart", Qty: 3},
	}

	m := FromEvent(ingest.Event{
		Kind:     ingest.EventProposalResolved,
		ListID:   "l1",
		EntryID:  "e1",
		Proposal: p,
		Decision: ingest.DecisionMerge,
		Err:      errors.New("boom"),
		At:       at,
	})

	assert.Equal(t, "proposal_resolved", m.Kind)
	assert.Equal(t, "merge", m.Decision)
	assert.Equal(t, "boom", m.Error)
	require.NotNil(t, m.Proposal)
	assert.Equal(t, 3.0, m.Proposal.Preview.Qty)
	assert.Equal(t, at, m.At)
}

func TestLogListener(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogListener(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	l.OnEvent(context.Background(), ingest.Event{Kind: ingest.EventCommitted, ListID: "l1", Item: &shopping.Item{Name: "Eggs", Qty: 6}})
	l.OnEvent(context.Background(), ingest.Event{Kind: ingest.EventDropped, ListID: "l1", Err: shopping.ErrListNotFound})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Eggs", entries[0].ContextMap()["item"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestRedisPublisher_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, err := NewRedisPublisher(ctx, logger.Nop(), addr, "smartlist:test")
	require.NoError(t, err)
	defer pub.Close()

	got := make(chan Message, 1)
	require.NoError(t, pub.Subscribe(ctx, func(m Message) { got <- m }))

	pub.OnEvent(ctx, ingest.Event{Kind: ingest.EventMerged, ListID: "l1"})

	select {
	case m := <-got:
		assert.Equal(t, "merged", m.Kind)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
