package clientdata

import "time"

// TTL constants for cached data.
// These are added to the write time to calculate expires_at.
const (
	// Ticker classifications rarely change (leverage, ETN status, delisting)
	TTLTickerRisk = 30 * 24 * time.Hour

	// Monthly return history only gains a row once a month
	TTLReturnHistory = 24 * time.Hour
)
