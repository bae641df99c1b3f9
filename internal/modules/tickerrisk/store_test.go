package tickerrisk

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/domain"
)

// clock is a settable time source shared by a store under test
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type storeFactory func(t *testing.T, c *clock) Store

func newTestFileStore(t *testing.T, c *clock) Store {
	s, err := NewFileStore(t.TempDir(), DefaultTTL, zerolog.Nop())
	require.NoError(t, err)
	s.now = c.now
	return s
}

func newTestSQLiteStore(t *testing.T, c *clock) Store {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE ticker_risk (ticker TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL)`)
	require.NoError(t, err)

	s := NewSQLiteStore(clientdata.NewRepository(db), DefaultTTL, zerolog.Nop())
	s.now = c.now
	return s
}

func newTestMemoryStore(_ *testing.T, c *clock) Store {
	s := NewMemoryStore(DefaultTTL)
	s.now = c.now
	return s
}

var storeFactories = map[string]storeFactory{
	"file":   newTestFileStore,
	"sqlite": newTestSQLiteStore,
	"memory": newTestMemoryStore,
}

func TestStores_RoundTrip(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			store := factory(t, c)
			ctx := context.Background()

			miss, err := store.Get(ctx, "TQQQ")
			require.NoError(t, err)
			assert.Nil(t, miss)

			rec := Classify("TQQQ", "ProShares UltraPro QQQ, a 3x leveraged fund", c.t)
			require.NoError(t, store.Put(ctx, rec))

			got, err := store.Get(ctx, "TQQQ")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, rec.Ticker, got.Ticker)
			assert.Equal(t, rec.WarningMessage, got.WarningMessage)
			assert.True(t, got.IsLeveraged)
			assert.True(t, rec.CachedAt.Equal(got.CachedAt))

			// Lookups are case-insensitive
			lower, err := store.Get(ctx, "tqqq")
			require.NoError(t, err)
			assert.NotNil(t, lower)
		})
	}
}

func TestStores_TTL(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			c := &clock{t: start}
			store := factory(t, c)
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, Classify("VTI", "Total market index fund", start)))

			c.t = start.Add(29 * 24 * time.Hour)
			got, err := store.Get(ctx, "VTI")
			require.NoError(t, err)
			assert.NotNil(t, got, "29 days old is still fresh")

			c.t = start.Add(31 * 24 * time.Hour)
			got, err = store.Get(ctx, "VTI")
			require.NoError(t, err)
			assert.Nil(t, got, "31 days old is expired")
		})
	}
}

func TestStores_Expire(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			c := &clock{t: now}
			store := factory(t, c)
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, Classify("OLD", "fund", now.Add(-40*24*time.Hour))))
			require.NoError(t, store.Put(ctx, Classify("NEW", "fund", now.Add(-time.Hour))))

			removed, err := store.Expire(ctx, now.Add(-DefaultTTL))
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)

			got, err := store.Get(ctx, "NEW")
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestFileStore_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, DefaultTTL, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "VTI.json"), []byte("{not json"), 0644))

	got, err := store.Get(context.Background(), "VTI")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Expire clears corrupt files
	removed, err := store.Expire(context.Background(), time.Now().Add(-DefaultTTL))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestFileStore_WritesJSONAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, DefaultTTL, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), domain.TickerRiskRecord{Ticker: "BND", CachedAt: time.Now()}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "BND.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "BND.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cached_at"`)
	assert.Contains(t, string(data), `"ticker": "BND"`)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "BRK.B", safeName("brk.b"))
	assert.Equal(t, "A_B", safeName("a/b"))
	assert.Equal(t, "A_B", safeName("a\\b"))
	assert.Equal(t, "A_B", safeName("a\x00b"))
	assert.Equal(t, ".._ETC_PASSWD", safeName("../etc/passwd"))
}
