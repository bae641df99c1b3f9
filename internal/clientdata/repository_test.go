package clientdata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE ticker_risk (ticker TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE return_history (cache_key TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	err := repo.Store(ctx, TableTickerRisk, "VTI", []byte(`{"ticker":"VTI"}`), time.Now().Add(time.Hour))
	require.NoError(t, err)

	data, err := repo.GetIfFresh(ctx, TableTickerRisk, "VTI")
	require.NoError(t, err)
	assert.Equal(t, `{"ticker":"VTI"}`, string(data))

	// Replace
	err = repo.Store(ctx, TableTickerRisk, "VTI", []byte(`{"ticker":"VTI","v":2}`), time.Now().Add(time.Hour))
	require.NoError(t, err)
	data, err = repo.GetIfFresh(ctx, TableTickerRisk, "VTI")
	require.NoError(t, err)
	assert.Equal(t, `{"ticker":"VTI","v":2}`, string(data))
}

func TestGetIfFresh_Expired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableReturnHistory, "k", []byte("blob"), time.Now().Add(-time.Hour)))

	data, err := repo.GetIfFresh(ctx, TableReturnHistory, "k")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Stale data is still available through Get
	data, err = repo.Get(ctx, TableReturnHistory, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
}

func TestGet_Missing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	data, err := repo.Get(context.Background(), TableTickerRisk, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestInvalidTable(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	assert.Error(t, repo.Store(ctx, "users; DROP TABLE x", "k", nil, time.Now()))
	_, err := repo.GetIfFresh(ctx, "missing", "k")
	assert.Error(t, err)
	_, err = repo.DeleteExpired(ctx, "missing")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableTickerRisk, "VTI", []byte("x"), time.Now().Add(time.Hour)))
	require.NoError(t, repo.Delete(ctx, TableTickerRisk, "VTI"))

	data, err := repo.Get(ctx, TableTickerRisk, "VTI")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableTickerRisk, "OLD", []byte("x"), time.Now().Add(-time.Hour)))
	require.NoError(t, repo.Store(ctx, TableTickerRisk, "NEW", []byte("x"), time.Now().Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, TableReturnHistory, "old", []byte("x"), time.Now().Add(-time.Hour)))

	results, err := repo.DeleteAllExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableTickerRisk])
	assert.Equal(t, int64(1), results[TableReturnHistory])

	data, err := repo.Get(ctx, TableTickerRisk, "NEW")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDeleteExpiredBefore(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Store(ctx, TableTickerRisk, "A", []byte("x"), base.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, TableTickerRisk, "B", []byte("x"), base.Add(3*time.Hour)))

	deleted, err := repo.DeleteExpiredBefore(ctx, TableTickerRisk, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
