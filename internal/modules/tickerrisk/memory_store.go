package tickerrisk

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/aristath/goaleval/internal/domain"
)

// MemoryStore keeps records in process memory. Used in tests and when no
// persistent cache is configured.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		// Entries never expire inside go-cache; freshness is judged from cached_at
		cache: cache.New(cache.NoExpiration, 0),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached record for ticker if present and fresh
func (s *MemoryStore) Get(_ context.Context, ticker string) (*domain.TickerRiskRecord, error) {
	v, ok := s.cache.Get(strings.ToUpper(ticker))
	if !ok {
		return nil, nil
	}
	rec, ok := v.(domain.TickerRiskRecord)
	if !ok || !rec.FreshAt(s.now(), s.ttl) {
		return nil, nil
	}
	return &rec, nil
}

// Put stores a copy of the record
func (s *MemoryStore) Put(_ context.Context, rec domain.TickerRiskRecord) error {
	s.cache.Set(strings.ToUpper(rec.Ticker), rec, cache.NoExpiration)
	return nil
}

// Expire deletes records cached before olderThan
func (s *MemoryStore) Expire(_ context.Context, olderThan time.Time) (int64, error) {
	var removed int64
	for key, item := range s.cache.Items() {
		rec, ok := item.Object.(domain.TickerRiskRecord)
		if !ok || rec.CachedAt.Before(olderThan) {
			s.cache.Delete(key)
			removed++
		}
	}
	return removed, nil
}
