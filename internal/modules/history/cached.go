package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/domain"
)

// CachedProvider memoizes another provider in the return_history table.
// Cache failures are logged and never fail a request.
type CachedProvider struct {
	inner Provider
	repo  *clientdata.Repository
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewCachedProvider wraps inner with a SQLite-backed cache
func NewCachedProvider(inner Provider, repo *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = clientdata.TTLReturnHistory
	}
	return &CachedProvider{
		inner: inner,
		repo:  repo,
		ttl:   ttl,
		now:   time.Now,
		log:   log.With().Str("provider", "cached").Logger(),
	}
}

// CacheKey identifies a request independent of ticker order and case
func CacheKey(tickers []string, years int) string {
	norm := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		u := strings.ToUpper(strings.TrimSpace(t))
		if !seen[u] {
			seen[u] = true
			norm = append(norm, u)
		}
	}
	sort.Strings(norm)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", strings.Join(norm, ","), years)))
	return hex.EncodeToString(sum[:])
}

// MonthlyReturns serves from cache when a fresh entry holds every ticker
func (p *CachedProvider) MonthlyReturns(ctx context.Context, tickers []string, years int) (*domain.ReturnMatrix, error) {
	key := CacheKey(tickers, years)

	if m := p.load(ctx, key, tickers); m != nil {
		p.log.Debug().Str("key", key).Msg("Return history cache hit")
		return m, nil
	}

	m, err := p.inner.MonthlyReturns(ctx, tickers, years)
	if err != nil {
		return nil, err
	}

	data, err := msgpack.Marshal(m)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to encode return history")
		return m, nil
	}
	if err := p.repo.Store(ctx, clientdata.TableReturnHistory, key, data, p.now().Add(p.ttl)); err != nil {
		p.log.Warn().Err(err).Msg("Failed to cache return history")
	}
	return m, nil
}

func (p *CachedProvider) load(ctx context.Context, key string, tickers []string) *domain.ReturnMatrix {
	data, err := p.repo.GetIfFresh(ctx, clientdata.TableReturnHistory, key)
	if err != nil {
		p.log.Warn().Err(err).Msg("Return history cache read failed")
		return nil
	}
	if data == nil {
		return nil
	}

	var cached domain.ReturnMatrix
	if err := msgpack.Unmarshal(data, &cached); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Corrupt return history entry, refetching")
		return nil
	}
	for i := range cached.Periods {
		cached.Periods[i] = cached.Periods[i].UTC()
	}

	m, err := cached.Select(tickers)
	if err != nil {
		// Cached under a different spelling of the same tickers
		return nil
	}
	return m
}
