package tickerrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/domain"
)

// SQLiteStore keeps one row per ticker in the ticker_risk cache table
type SQLiteStore struct {
	repo *clientdata.Repository
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

// NewSQLiteStore creates a store over a client data repository
func NewSQLiteStore(repo *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *SQLiteStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteStore{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With().Str("store", "sqlite").Logger(),
	}
}

// Get returns the cached record for ticker if present and fresh
func (s *SQLiteStore) Get(ctx context.Context, ticker string) (*domain.TickerRiskRecord, error) {
	data, err := s.repo.Get(ctx, clientdata.TableTickerRisk, strings.ToUpper(ticker))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rec domain.TickerRiskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Corrupt ticker cache row, treating as miss")
		return nil, nil
	}
	// The row expiry is advisory; cached_at is authoritative
	if !rec.FreshAt(s.now(), s.ttl) {
		return nil, nil
	}
	return &rec, nil
}

// Put upserts the record
func (s *SQLiteStore) Put(ctx context.Context, rec domain.TickerRiskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", rec.Ticker, err)
	}
	return s.repo.Store(ctx, clientdata.TableTickerRisk, strings.ToUpper(rec.Ticker), data, rec.CachedAt.Add(s.ttl))
}

// Expire deletes records cached before olderThan
func (s *SQLiteStore) Expire(ctx context.Context, olderThan time.Time) (int64, error) {
	// expires_at = cached_at + ttl, so cached_at < olderThan <=> expires_at < olderThan + ttl
	return s.repo.DeleteExpiredBefore(ctx, clientdata.TableTickerRisk, olderThan.Add(s.ttl))
}
