package tickerrisk

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupJob purges classifications older than the TTL.
// It should be scheduled to run daily.
type CleanupJob struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewCleanupJob creates a ticker cache cleanup job
func NewCleanupJob(store Store, ttl time.Duration, log zerolog.Logger) *CleanupJob {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CleanupJob{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		log:   log.With().Str("job", "ticker_risk_cleanup").Logger(),
	}
}

// Run removes expired records
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.store.Expire(ctx, j.now().Add(-j.ttl))
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to expire ticker classifications")
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("deleted", removed).Msg("Expired ticker classifications")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "ticker_risk_cleanup"
}
