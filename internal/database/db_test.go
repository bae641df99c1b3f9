package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "cache", db.Name())
	assert.Equal(t, path, db.Path())

	require.NoError(t, db.Migrate())
	// Second run is a no-op
	require.NoError(t, db.Migrate())

	for _, table := range []string{"ticker_risk", "return_history"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrate_UnknownNameIsSkipped(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "other.db"), Name: "other"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestBuildConnectionString(t *testing.T) {
	cache := buildConnectionString("/tmp/x.db", ProfileCache)
	assert.Contains(t, cache, "/tmp/x.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")

	standard := buildConnectionString("/tmp/x.db", ProfileStandard)
	assert.Contains(t, standard, "synchronous(NORMAL)")

	uri := buildConnectionString("file:test?mode=memory", ProfileCache)
	assert.Contains(t, uri, "file:test?mode=memory&_pragma=journal_mode(WAL)")
}
