package tickerrisk

import (
	"context"
	"time"

	"github.com/aristath/goaleval/internal/domain"
)

// DefaultTTL is how long a classification is trusted
const DefaultTTL = 30 * 24 * time.Hour

// Store persists ticker classifications. Get returns (nil, nil) for a miss,
// including records that are older than the store's TTL or unreadable.
type Store interface {
	Get(ctx context.Context, ticker string) (*domain.TickerRiskRecord, error)
	Put(ctx context.Context, record domain.TickerRiskRecord) error
	// Expire removes records cached before olderThan and reports how many went
	Expire(ctx context.Context, olderThan time.Time) (int64, error)
}
