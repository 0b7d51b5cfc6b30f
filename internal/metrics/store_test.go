package metrics_test

import (
	"path/filepath"
	"testing"
	"time"

	"smart-shopping-list/internal/database"
	"smart-shopping-list/internal/metrics"
	"smart-shopping-list/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *metrics.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return metrics.NewStore(db.SQL)
}

func TestStore_DailyUsage(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordMeta(shared.AgentMeta{
		AgentName: "Normalizer",
		Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 20, Model: "gemini"},
		Latency:   300 * time.Millisecond,
	}))
	require.NoError(t, s.RecordMeta(shared.AgentMeta{
		AgentName: "SmartAdd",
		Usage:     shared.TokenUsage{PromptTokens: 50, CompletionTokens: 10, Model: "gemini"},
	}))
	// Zero usage (cache hit) is not recorded.
	require.NoError(t, s.RecordMeta(shared.AgentMeta{AgentName: "Normalizer"}))

	usage, err := s.GetDailyUsage(1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 150, usage[0].TotalPrompt)
	assert.Equal(t, 30, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)
}

func TestStore_AgentUsage(t *testing.T) {
	s := newTestStore(t)

	for _, latency := range []time.Duration{100 * time.Millisecond, 300 * time.Millisecond} {
		require.NoError(t, s.RecordMeta(shared.AgentMeta{
			AgentName: shared.AgentNormalizer,
			Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			Latency:   latency,
		}))
	}
	require.NoError(t, s.RecordMeta(shared.AgentMeta{
		AgentName: shared.AgentSmartAdd,
		Usage:     shared.TokenUsage{PromptTokens: 40, CompletionTokens: 20, TotalTokens: 60},
	}))

	usage, err := s.GetAgentUsage(1)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, shared.AgentNormalizer, usage[0].AgentName)
	assert.Equal(t, 2, usage[0].Executions)
	assert.Equal(t, 20, usage[0].PromptTokens)
	assert.Equal(t, 10, usage[0].CompletionTokens)
	assert.Equal(t, 200*time.Millisecond, usage[0].AvgLatency)

	assert.Equal(t, shared.AgentSmartAdd, usage[1].AgentName)
	assert.Equal(t, 1, usage[1].Executions)
}

func TestStore_Cleanup(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Record(metrics.ExecutionMetric{AgentName: "old", PromptTokens: 1, Timestamp: time.Now().AddDate(0, 0, -40)}))
	require.NoError(t, s.Record(metrics.ExecutionMetric{AgentName: "new", PromptTokens: 1}))

	n, err := s.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	usage, err := s.GetDailyUsage(60)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	h := metrics.GetSysHealth(dir)
	assert.Greater(t, h.Goroutines, 0)
	assert.Equal(t, "0 B", h.DataDiskSize)
}
