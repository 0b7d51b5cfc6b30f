package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_RunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "smartlist.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"shopping_lists", "execution_metrics", "chat_sessions"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}

	// Re-running against an up-to-date database is a no-op.
	require.NoError(t, RunMigrations(path))

	version, dirty, err := SchemaVersion(context.Background(), db.SQL)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	assert.Equal(t, "v2", SchemaStatus(context.Background(), db.SQL))
}
