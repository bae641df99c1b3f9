// Package clientdata provides persistent caching for external collaborator responses.
// All data is stored as opaque blobs with expiration timestamps for cache-first behavior.
package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cache tables
const (
	TableTickerRisk    = "ticker_risk"
	TableReturnHistory = "return_history"
)

// AllTables lists all cache tables for cleanup operations.
var AllTables = []string{
	TableTickerRisk,
	TableReturnHistory,
}

// keyColumns maps each table to its primary key column. It doubles as the
// allow-list that keeps table names out of reach of caller input.
var keyColumns = map[string]string{
	TableTickerRisk:    "ticker",
	TableReturnHistory: "cache_key",
}

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func keyColumn(table string) (string, error) {
	col, ok := keyColumns[table]
	if !ok {
		return "", fmt.Errorf("invalid table name: %s", table)
	}
	return col, nil
}

// Store saves data with the given expiry, replacing any existing entry.
func (r *Repository) Store(ctx context.Context, table, key string, data []byte, expiresAt time.Time) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, data, expires_at) VALUES (?, ?, ?)", table, col)
	if _, err := r.db.ExecContext(ctx, query, key, data, expiresAt.Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// GetIfFresh returns data only if it has not expired.
// Returns nil, nil if the key doesn't exist or data is expired.
func (r *Repository) GetIfFresh(ctx context.Context, table, key string) ([]byte, error) {
	col, err := keyColumn(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ? AND expires_at > ?", table, col)

	var data []byte
	err = r.db.QueryRowContext(ctx, query, key, r.now().Unix()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}
	return data, nil
}

// Get returns data regardless of expiration status.
// Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(ctx context.Context, table, key string) ([]byte, error) {
	col, err := keyColumn(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", table, col)

	var data []byte
	err = r.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}
	return data, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(ctx context.Context, table, key string) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpiredBefore removes all rows whose expiry is earlier than cutoff.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpiredBefore(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	if _, err := keyColumn(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)
	result, err := r.db.ExecContext(ctx, query, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteExpired removes all rows that have expired by now.
func (r *Repository) DeleteExpired(ctx context.Context, table string) (int64, error) {
	return r.DeleteExpiredBefore(ctx, table, r.now())
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(ctx, table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
